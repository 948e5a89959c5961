//go:build !linux && !darwin

package validate

// freeBytes cannot measure free space here; the check passes.
func freeBytes(string) (uint64, error) {
	return MinFreeBytes, nil
}

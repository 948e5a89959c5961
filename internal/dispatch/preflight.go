package dispatch

import (
	"fmt"
	"os/exec"
	"strings"
)

// RequireBinaries checks that every named binary is available on PATH.
func RequireBinaries(names ...string) error {
	var missing []string
	for _, bin := range names {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required binaries not found in PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}

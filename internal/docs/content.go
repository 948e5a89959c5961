package docs

var topics = []Topic{
	{
		Name:     "quickstart",
		Title:    "Quick Start",
		Summary:  "Getting started with aiflow",
		Content:  topicQuickstart,
		Commands: []string{"init", "setup", "selftest"},
	},
	{
		Name:     "phases",
		Title:    "Workflow Phases",
		Summary:  "The seven lifecycle phases and how detection picks one",
		Content:  topicPhases,
		Commands: []string{"detect", "mcp"},
	},
	{
		Name:     "context",
		Title:    "AI Context Bridge",
		Summary:  "Context documents, handoff prompts, quality scoring",
		Content:  topicContext,
		Commands: []string{"context"},
	},
	{
		Name:     "migration",
		Title:    "Migrating an Existing Project",
		Summary:  "migrate, stage, rollback and the migration state file",
		Content:  topicMigration,
		Commands: []string{"migrate", "stage", "rollback"},
	},
	{
		Name:     "validation",
		Title:    "Validation and Health",
		Summary:  "Pre-migration rules and post-migration health checks",
		Content:  topicValidation,
		Commands: []string{"validate", "health"},
	},
	{
		Name:     "metrics",
		Title:    "Metrics and Progress",
		Summary:  "GitHub-backed workflow metrics, the progress dashboard and history",
		Content:  topicMetrics,
		Commands: []string{"metrics", "progress", "history"},
	},
	{
		Name:     "notifications",
		Title:    "Team Notifications",
		Summary:  "Slack and Teams phase-completion messages",
		Content:  topicNotifications,
		Commands: []string{"notify"},
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "Config file keys, defaults, and environment overrides",
		Content: topicConfig,
	},
}

const topicQuickstart = `Quick Start
===========

New project:

    aiflow init my-project
    cd my-project
    aiflow setup

   init creates the directory layout, a README and .aiflow/config.yaml.
   setup asks about the project (name, version, language, AI tools, team
   size, security level) and writes the core docs under docs/. Pass --yes
   to accept every default.

Existing project:

    aiflow detect            # which phase are we in?
    aiflow validate          # anything blocking a migration?
    aiflow migrate           # install the workflow templates
    aiflow health            # verify the result

Finishing a phase:

    aiflow context complete poc       # record decisions and constraints
    aiflow context quality --phase poc
    aiflow context start implementation

Every command accepts --dir to point at a project root. Without it,
aiflow walks up from the current directory looking for .aiflow/config.yaml
or .git.

Run 'aiflow docs <topic>' for details on any area.
`

const topicPhases = `Workflow Phases
===============

Projects move through seven phases, in order:

    discovery       concept stage, before technology selection
    requirements    functional and non-functional requirements
    poc             verify technical feasibility
    implementation  build the production code
    review          code review and refactoring
    testing         test automation and quality gates
    production      release, monitoring and maintenance

The five phases from requirements to testing are "bridge" phases: each
one ends with an AI context document that the next one starts from
(see 'aiflow docs context').

Detection
---------

    aiflow detect [--detailed] [--json] [--confidence-threshold 0.7]

Every phase has a fixed list of weighted indicators: files and directories
that should or should not exist, dependency counts, keywords in README,
git history shape, the package version and the file count. Each indicator
scores 0..1 with a confidence.

  - Phase score is the weighted mean of its indicator scores.
  - Confidence is the mean indicator confidence, reduced when the
    indicators disagree (1 - 2 x variance, floored at 0).
  - The top score wins. Phases within 0.2 of it are listed as
    alternatives.
  - Confidence at or above the threshold gives a "high" certainty and a
    targeted migration strategy; below it, "medium" and gradual.

An indicator that fails is scored 0 with confidence 0.3; it never aborts
the run. go.mod requirements count as dependencies, like package.json.
`

const topicContext = `AI Context Bridge
=================

Context documents live in docs/ai-context/ (paths.context-dir):

    ai-context-<phase>.yml       decisions, constraints, patterns, focus
    handoff-prompt-<phase>.md    prompt that starts <phase>
    quality-summary.yml          rolling quality summary
    quality-reports/             one report per evaluation

Commands
--------

    aiflow context complete [phase]
        Interview: AI tools, then key decisions (decision, reasoning,
        impact), constraints, learned patterns and next-phase focus.
        Each list ends on a blank answer.

    aiflow context start <phase> [--with-project]
        Write the handoff prompt for <phase>, embedding the previous
        phase's YAML. requirements has no previous phase. --with-project
        appends the directory layout, key docs and recent commits.

    aiflow context check
        List the context files and walk a six-item checklist.
        80% or more is good, 60% fair, less is poor.

    aiflow context quality --phase <phase> [--context-file path]
        Score a document out of 100:

            key decisions        25   first 5 items
            constraints          20   first 5 items
            learned patterns     20   first 5 items
            technical artifacts  15   by kind, capped
            next phase focus     20   first 5 items

        Grades: A+ >= 90, A >= 80, B >= 70, C >= 60, else D.

    aiflow context extract --phase <phase> --issue-body - [...]
        Build a context document from a closed issue's Markdown body:
        list items under "Decisions" / "Next Steps" headings, constraint
        and pattern lines, AI tool mentions, code blocks, file references
        and links, and metrics such as coverage or test counts. Japanese
        headings from the original templates are understood too.

    aiflow context next --current-phase <phase>
        Fill the next phase's kickoff template from the current context
        and write temp/next-phase-context.md.

    aiflow context metrics
        Context coverage, handoff prompts and average quality per phase.

Under GitHub Actions (GITHUB_ACTIONS=true) extract and quality also print
::set-output lines for the workflow.

AI assistants
-------------

    aiflow mcp

serves the Model Context Protocol on stdio. Register it with an assistant
that speaks MCP to give it these tools:

    detect_phase       phase detection for the project or a path
    evaluate_context   quality score of a phase's context document
    migration_status   the staged migration checklist
    handoff_prompt     the prompt that starts a phase, optionally with a
                       project snapshot (include_project)
`

const topicMigration = `Migrating an Existing Project
=============================

    aiflow migrate [--analyze-only] [--force] [--phase <phase>]

Analysis compares the project with the template catalogue:

    core-docs          high     project context, standards, architecture
    github-templates   high     issue and pull request templates
    workflows          medium   context bridge and progress workflows
    scripts            high     wrapper scripts calling aiflow
    advanced-docs      low      deeper guides
    ai-context         medium   docs/ai-context, docs/ai-prompts

A conflict is an existing file that differs from the template and is
longer than 100 bytes. Conflicts are backed up first, then for each one
you choose keep, replace or manual (manual writes the template next to
your file as <name>.aiflow-template). --force keeps your files and aborts
on the first failed step.

Staged migration
----------------

    aiflow stage schedule <phase>   plan steps from discovery to <phase>
    aiflow stage resume             run the remaining steps (--dry-run lists them)
    aiflow stage pause              pause an in-progress run
    aiflow stage status             show the checklist
    aiflow stage reset              delete the plan

Progress is saved in .migration-state.json after every step, so an
interrupted or failed run picks up where it stopped.

Rollback
--------

    aiflow rollback [--list-backups] [--backup-dir NAME]
                    [--partial docs,github,scripts,workflows,package]
                    [--force]

Backups are .backup-<unix-ms>/ directories with a metadata file. Rollback
restores every managed path found in the backup, removes the ones that
were not there before, restores package.json, and commits the result.
`

const topicValidation = `Validation and Health
=====================

Before migrating:

    aiflow validate [--fix-auto] [--export json|md|console] [--detailed]

    git-status            critical  working tree is clean
    toolchain             high      git on PATH, plus go or node when needed
    package-json          medium    name and version present (auto-fix)
    directory-structure   low       docs/ and .github/ exist (auto-fix)
    file-conflicts        high      template files that already exist
    dependencies          medium    template dependencies are pinned
    disk-space            low       at least 5 MB free
    github-integration    medium    origin points at github.com

The command exits 1 when any critical rule fails.

After migrating:

    aiflow health [--report console|json|md] [--detailed] [--fix-issues]

    files-integrity        required files exist and are not truncated
    command-functionality  wrapper scripts exist and are executable
    github-integration     remote, templates, workflows, token
    ai-context-system      context dir, prompts, log, architecture doc
    workflow-metrics       recent commits, context log entries, issues

The overall score is the average of the checks; 60 or more passes.
--fix-issues rewrites missing template files.

    aiflow selftest [--full-migration] [--keep] [--verbose]

runs detection, validation, analysis, staging and backups against a
throwaway mock project and reports timings.
`

const topicMetrics = `Metrics and Progress
====================

Both commands read GitHub and need a token (GITHUB_TOKEN, or the variable
named by github.token-env) and a repository.

    aiflow metrics [--days 30] [--repository owner/repo]

Collects, over the window:

  - issues per phase label, completion and average days to close
  - pull requests: merged, review time, size, commits, reviews
  - AI usage from commit messages ([ai, copilot, generated, ai:) and
    tool mentions, plus the number of context files
  - bugs opened and average fix time

and writes docs/metrics/workflow-metrics-<date>.md with strengths,
improvements and action items. A failing section is reported and left
out; the rest of the report is still written.

    aiflow progress [--output console|json|yaml] [--repository owner/repo]

Builds the progress dashboard from phase:<name> issue labels. An open
issue with a label containing "blocked" or "waiting" counts as blocked.
Bottlenecks are issues open more than 14 days, blocked issues and PRs
awaiting review. The dashboard is saved to progress-dashboard.yml with a
dated copy under progress-history/.

History
-------

detect, context quality and progress also record a row in a local SQLite
database (.aiflow/history.db):

    aiflow history [--kind detections|quality|progress] [--limit 20]

Set history.enabled: false to turn this off. A history failure is only a
warning.
`

const topicNotifications = `Team Notifications
==================

    aiflow notify --phase <phase> [--webhook-url URL] [--teams-webhook URL]
                  [--issue-url URL] [--repository owner/repo]
                  [--quality-score N]

Posts a phase-completion message built from ai-context-<phase>.yml (up
to three key decisions and three focus items) and the overall progress
from the dashboard.

  - Slack: Block Kit message with a header, project/phase/quality/progress
    fields and buttons to the issue and the dashboard.
  - Teams: MessageCard whose accent follows the score:
    >= 80 green, >= 70 yellow, >= 60 orange, else red.

Webhooks default to notifications.slack-webhook / teams-webhook, or the
SLACK_WEBHOOK_URL / TEAMS_WEBHOOK_URL environment variables. Each target
is sent independently with a 10 second timeout; the command fails if any
send failed.
`

const topicConfig = `Configuration Reference
=======================

aiflow reads .aiflow/config.yaml at the project root. The file is
optional; missing keys use the defaults shown.

    project: my-project

    github:
      owner: acme
      repo: my-project
      token-env: GITHUB_TOKEN      # variable holding the token

    notifications:
      slack-webhook: ""
      teams-webhook: ""

    detection:
      confidence-threshold: 0.7    # 0..1

    paths:
      context-dir: docs/ai-context

    history:
      enabled: true
      path: .aiflow/history.db

Environment overrides
---------------------

    GITHUB_TOKEN            token (fallback when token-env is unset)
    GITHUB_REPOSITORY       owner/repo, as set by GitHub Actions
    GITHUB_OWNER            overrides github.owner
    GITHUB_REPO             overrides github.repo
    SLACK_WEBHOOK_URL       overrides notifications.slack-webhook
    TEAMS_WEBHOOK_URL       overrides notifications.teams-webhook

Validation rejects a threshold outside 0..1, a malformed owner/repo and
webhook URLs that are not http or https.
`

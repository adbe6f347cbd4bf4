package main

import (
	"os"
	"strings"

	"portfolio-cli/internal/cli"
)

func isProjectID(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "proj-") {
		return false
	}
	return len(s) > len("proj-")
}

// rewriteDirectProjectLookupArgs makes `portfolio <project-id>` work like
// `portfolio projects show <project-id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first, so look for the first
// positional token rather than argv[1].
func rewriteDirectProjectLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so a project id
	// is never swallowed.
	valueFlags := map[string]bool{
		"--mode":   true,
		"--config": true,
		"--format": true,
	}
	boolFlags := map[string]bool{
		"--pretty":    true,
		"--verbose":   true,
		"-v":          true,
		"--ephemeral": true,
	}

	rewrite := func(at int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:at]...)
		out = append(out, "projects", "show")
		return append(out, argv[at:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isProjectID(argv[i+1]) {
				return rewrite(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if isProjectID(a) {
			return rewrite(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectProjectLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

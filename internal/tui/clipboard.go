package tui

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

type clipboardTool struct {
	name string
	args []string
}

// clipboardTools lists the copy commands to try, in order, for goos.
func clipboardTools(goos string) []clipboardTool {
	switch goos {
	case "darwin":
		return []clipboardTool{{name: "pbcopy"}}
	case "windows":
		return []clipboardTool{
			{name: "cmd", args: []string{"/c", "clip"}},
			{name: "powershell", args: []string{"-NoProfile", "-Command", "Set-Clipboard"}},
		}
	default:
		// Wayland first, then X11.
		return []clipboardTool{
			{name: "wl-copy"},
			{name: "xclip", args: []string{"-selection", "clipboard"}},
			{name: "xsel", args: []string{"--clipboard", "--input"}},
		}
	}
}

func copyToClipboard(s string) error {
	var errs []error
	for _, tool := range clipboardTools(runtime.GOOS) {
		path, err := exec.LookPath(tool.name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cmd := exec.Command(path, tool.args...)
		cmd.Stdin = strings.NewReader(s)
		if err := cmd.Run(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tool.name, err))
			continue
		}
		return nil
	}
	if len(errs) == 0 {
		return errors.New("no clipboard tool for " + runtime.GOOS)
	}
	return errors.Join(errs...)
}

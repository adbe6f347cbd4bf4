package tui

import "testing"

func TestClipboardTools_PerOS(t *testing.T) {
	t.Parallel()

	if got := clipboardTools("darwin"); len(got) != 1 || got[0].name != "pbcopy" {
		t.Fatalf("unexpected darwin tools: %+v", got)
	}
	if got := clipboardTools("linux"); len(got) != 3 || got[0].name != "wl-copy" {
		t.Fatalf("expected wayland first on linux; got %+v", got)
	}
	if got := clipboardTools("windows"); got[0].name != "cmd" || got[1].name != "powershell" {
		t.Fatalf("unexpected windows tools: %+v", got)
	}
}

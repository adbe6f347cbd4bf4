package docs

import (
	"strings"
	"testing"
)

func TestTopics_AllReadable(t *testing.T) {
	t.Parallel()

	topics := Topics()
	if len(topics) == 0 {
		t.Fatalf("expected embedded topics")
	}
	for _, topic := range topics {
		body, ok := Get(topic)
		if !ok || !strings.HasPrefix(body, "# ") {
			t.Fatalf("topic %q: ok=%v body starts %q", topic, ok, body[:min(len(body), 20)])
		}
	}
}

func TestGet_CaseInsensitiveAndRejectsPaths(t *testing.T) {
	t.Parallel()

	if _, ok := Get(" Storage "); !ok {
		t.Fatalf("expected topic lookup to ignore case and spaces")
	}
	for _, bad := range []string{"", "../docs", "content/storage", "nope"} {
		if _, ok := Get(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

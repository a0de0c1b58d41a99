package logf_test

import (
	"strings"
	"testing"

	"github.com/stairlin/relay/log"
	"github.com/stairlin/relay/log/formatter/logf"
)

func TestFormat(t *testing.T) {
	f, err := logf.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := &log.Ctx{
		Level:     "TR",
		Timestamp: "2026/08/25 10:04:59.123456",
		Service:   "api",
		File:      "foo/bar.go:42",
	}
	line, err := f.Format(ctx, "a.tag", "A message",
		log.String("lang", "en_GB"),
		log.Int("flag", 3),
	)
	if err != nil {
		t.Fatal(err)
	}

	for _, part := range []string{
		"TR",
		"api",
		"foo/bar.go:42",
		"[a.tag]",
		"A message",
		"<lang=en_GB>",
		"<flag=3>",
	} {
		if !strings.Contains(line, part) {
			t.Errorf("expect line to contain <%s>, but got %s", part, line)
		}
	}
}

// TestFormat_NoTag ensures that the tag brackets are dropped with the tag
func TestFormat_NoTag(t *testing.T) {
	f, err := logf.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	line, err := f.Format(&log.Ctx{Level: "TR"}, "", "A message")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(line, "[") {
		t.Errorf("expect line to have no tag brackets, but got %s", line)
	}
}

package logfields

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Path", KeyPath, "/posts/a", Path("/posts/a")},
		{"Page", KeyPage, "/post", Page("/post")},
		{"Rule", KeyRule, "posts", Rule("posts")},
		{"Source", KeySource, "content/posts", Source("content/posts")},
		{"File", KeyFile, "posts/a.html", File("posts/a.html")},
		{"Stage", KeyStage, "resolve", Stage("resolve")},
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Fingerprint", KeyFingerprint, "abc", Fingerprint("abc")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Fatalf("%s key mismatch: got %s want %s", c.name, c.attr.Key, c.attrKey)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Fatalf("%s value mismatch: got %s want %s", c.name, c.attr.Value.String(), c.attrVal)
		}
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	if got := Count(3).Value.Int64(); got != 3 {
		t.Fatalf("count: got %d", got)
	}
	if got := Duration(1500 * time.Microsecond).Value.Float64(); got != 1.5 {
		t.Fatalf("duration: got %v", got)
	}
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("nil error should be empty, got %q", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Fatalf("error value: got %q", got)
	}
}

func TestParamsGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("route", Params(map[string]string{"slug": "a"}))
	if !strings.Contains(buf.String(), "params.slug=a") {
		t.Fatalf("expected grouped params in %q", buf.String())
	}
}

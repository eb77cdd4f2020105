package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = log.New(&buf, "", 0)
	t.Cleanup(func() { out = prev; Init("info") })
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	Init("warn")
	Debugf("hidden %d", 1)
	Infof("hidden %d", 2)
	Warnf("visible %d", 3)
	Errorf("visible %d", 4)

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Fatalf("below-threshold lines were emitted: %q", got)
	}
	if !strings.Contains(got, "[WARN] visible 3") || !strings.Contains(got, "[ERROR] visible 4") {
		t.Fatalf("expected warn/error lines, got: %q", got)
	}
}

func TestInitDefaultsToInfo(t *testing.T) {
	buf := capture(t)

	Init("not-a-level")
	if LevelString() != "info" {
		t.Fatalf("unexpected level: %s", LevelString())
	}
	Debug("quiet")
	Info("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

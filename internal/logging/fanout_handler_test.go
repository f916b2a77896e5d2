package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRoutesByLevel(t *testing.T) {
	var console, file bytes.Buffer
	h := newFanoutHandler(
		newConsoleHandler(&console, slog.LevelInfo, false),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout to accept debug when one handler does")
	}

	logger := slog.New(h).With("path", "/x.wav").WithGroup("report")
	logger.Debug("chunk copied", "id", "fmt ")
	logger.Info("done", "size", 44)

	if strings.Contains(console.String(), "chunk copied") {
		t.Fatalf("console should drop debug, got %q", console.String())
	}
	if !strings.Contains(console.String(), "path=/x.wav") || !strings.Contains(console.String(), "report.size=44") {
		t.Fatalf("console missing attrs: %q", console.String())
	}
	if strings.Count(file.String(), "\n") != 2 {
		t.Fatalf("file should receive both records, got %q", file.String())
	}
	if !strings.Contains(file.String(), `"report":{"size":44}`) {
		t.Fatalf("file missing grouped attr: %q", file.String())
	}
}

func TestFanoutHandlerPreservesRecordForEachHandler(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	slog.New(h).Info("both", "k", "v")
	if !strings.Contains(a.String(), `"k":"v"`) || !strings.Contains(b.String(), `"k":"v"`) {
		t.Fatalf("attrs lost: %q / %q", a.String(), b.String())
	}
}

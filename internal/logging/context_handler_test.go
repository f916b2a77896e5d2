package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestContextLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(newContextHandler(slog.NewJSONHandler(buf, nil), "run-123"))
}

func TestContextHandlerTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestContextLogger(&buf).With("extra", "value")
	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, `"session_id":"run-123"`) {
		t.Errorf("expected session_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"extra":"value"`) {
		t.Errorf("expected extra attr in output, got: %s", output)
	}
}

func TestContextHandlerCopiesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestContextLogger(&buf)
	ctx := WithCorrelationID(WithOperation(context.Background(), "save"), "abc")

	logger.InfoContext(ctx, "saved")
	output := buf.String()
	for _, want := range []string{`"operation":"save"`, `"correlation_id":"abc"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
}

func TestContextHandlerSkipsBoundFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithOperation(context.Background(), "scan")
	logger := WithContext(ctx, newTestContextLogger(&buf))

	logger.InfoContext(ctx, "scanned")
	if n := strings.Count(buf.String(), `"operation"`); n != 1 {
		t.Fatalf("operation appears %d times: %s", n, buf.String())
	}
}

func TestContextHandlerGroupedAttrsDoNotSuppress(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestContextLogger(&buf).WithGroup("chunk").With(FieldOperation, "copy")

	logger.InfoContext(WithOperation(context.Background(), "save"), "copied")
	output := buf.String()
	if !strings.Contains(output, `"operation":"save"`) {
		t.Fatalf("grouped attr suppressed the context operation: %s", output)
	}
}

func TestContextHandlerNilBase(t *testing.T) {
	if _, ok := newContextHandler(nil, "x").(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when base is nil")
	}
}

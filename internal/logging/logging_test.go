package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewOperationError_NilStaysNil(t *testing.T) {
	if err := NewOperationError("download", "a.jpg", nil); err != nil {
		t.Fatalf("NewOperationError(nil) = %v, want nil", err)
	}
}

func TestOperationError_MessageAndUnwrap(t *testing.T) {
	base := errors.New("boom")

	err := NewOperationError("download", "a.jpg", base)
	if err.Error() != "download a.jpg: boom" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Fatalf("errors.Is(err, base) = false, want true")
	}

	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Operation != "download" {
		t.Fatalf("errors.As = %#v", opErr)
	}

	if got := NewOperationError("refresh", "", base).Error(); got != "refresh: boom" {
		t.Fatalf("Error() without target = %q", got)
	}
}

func TestWithOperation_AddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := WithOperation(zap.New(core), "anonymizer jobs submit", "run-1")
	logger.Info("sent")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["operation"] != "anonymizer jobs submit" || fields["run_id"] != "run-1" {
		t.Fatalf("fields = %v", fields)
	}

	core, logs = observer.New(zapcore.InfoLevel)
	WithOperation(zap.New(core), "status", "").Info("polled")
	if _, ok := logs.All()[0].ContextMap()["run_id"]; ok {
		t.Fatalf("empty run id should not be logged")
	}
}

func TestNewLogger_DebugEnablesDebugLevel(t *testing.T) {
	logger, err := NewLogger(true)
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug logger does not enable debug level")
	}

	logger, err = NewLogger(false)
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("default logger should stay quiet below warn")
	}
}

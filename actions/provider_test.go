package actions

import (
	"context"
	"testing"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func runLogged(t *testing.T, logs *zap.Logger) {
	t.Helper()

	root := &cli.Command{
		Name: "anonymizer",
		Commands: []*cli.Command{{
			Name: "jobs",
			Commands: []*cli.Command{{
				Name: "status",
				Action: func(_ context.Context, cmd *cli.Command) error {
					operationLogger(logs, cmd).Info("polled")
					return nil
				},
			}},
		}},
	}
	if err := root.Run(context.Background(), []string{"anonymizer", "jobs", "status"}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestOperationLogger_TagsCommandAndRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	runLogged(t, zap.New(core))
	runLogged(t, zap.New(core))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	first := entries[0].ContextMap()
	second := entries[1].ContextMap()
	if first["operation"] != "anonymizer jobs status" {
		t.Fatalf("operation = %v, want anonymizer jobs status", first["operation"])
	}
	if first["run_id"] == "" || first["run_id"] == nil {
		t.Fatalf("run_id missing: %v", first)
	}
	if first["run_id"] == second["run_id"] {
		t.Fatalf("run_id %v reused across invocations", first["run_id"])
	}
}

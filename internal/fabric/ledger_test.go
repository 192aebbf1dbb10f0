package fabric

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctiport/bcauth/internal/audit"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCallUnknownOrg(t *testing.T) {
	l := NewLedger(testNetwork(), NewBridge(0, time.Second), discard(), nil)
	res := l.Call(context.Background(), "org9", "pat", "invoke", nil)
	if !res.Err() {
		t.Fatalf("expected error result, got %+v", res)
	}
}

func TestCallFailedCommandDegrades(t *testing.T) {
	// The built command references a network dir and peer binary that do
	// not exist here; the shell's complaints become the error payload.
	l := NewLedger(testNetwork(), NewBridge(0, 5*time.Second), discard(), nil)
	res := l.Call(context.Background(), "", "pat", "invoke", []string{"uid01", "pw"})
	if res.Outcome != OutcomeError {
		t.Fatalf("expected error outcome, got %s (%q)", res.Outcome, res.Payload)
	}
	if res.Payload == "" {
		t.Error("expected a non-empty error payload")
	}
}

func TestCallRecordsAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invocations.jsonl")
	log, err := audit.Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}

	l := NewLedger(testNetwork(), NewBridge(0, 5*time.Second), discard(), log)
	l.Call(context.Background(), "org2", "rreg", "list", []string{"pat-1"})
	if err := log.Close(); err != nil {
		t.Fatalf("close audit log: %v", err)
	}

	result := audit.Verify(path)
	if !result.Valid {
		t.Fatalf("audit chain invalid: %s", result.Error)
	}
	if result.Lines != 1 {
		t.Errorf("expected 1 audit entry, got %d", result.Lines)
	}
}

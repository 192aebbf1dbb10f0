package fabric

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ctiport/bcauth/internal/audit"
	"github.com/ctiport/bcauth/internal/config"
)

// Ledger is the call layer the orchestrator talks to: it builds the
// command, runs it through the bridge, interprets the output, and leaves
// an audit trail. All ledger decisions happen on the other side of the
// CLI; this layer only relays one of the two possible outcomes.
type Ledger struct {
	builder *Builder
	bridge  *Bridge
	logger  *slog.Logger
	audit   *audit.Log
}

// NewLedger wires a Ledger. auditLog may be nil when no invocation log
// is configured.
func NewLedger(cfg config.Fabric, bridge *Bridge, logger *slog.Logger, auditLog *audit.Log) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		builder: NewBuilder(cfg),
		bridge:  bridge,
		logger:  logger,
		audit:   auditLog,
	}
}

// Call invokes one chaincode function and returns the interpreted
// result. An empty org selects the default identity. Unknown orgs,
// launch failures, and timeouts all degrade to an error Result; Call
// never returns a Go error because every failure has a caller-visible
// error payload.
func (l *Ledger) Call(ctx context.Context, org, chaincode, function string, args []string) Result {
	command, err := l.builder.Command(org, chaincode, function, args)
	if err != nil {
		return l.finish(org, chaincode, function, Result{OutcomeError, err.Error()}, 0)
	}

	start := time.Now()
	lines, err := l.bridge.Invoke(ctx, command)
	elapsed := time.Since(start)

	var res Result
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		res = Result{OutcomeError, "timeout"}
	case err != nil && len(lines) == 0:
		res = Result{OutcomeError, ExceptionPayload}
	default:
		res = Interpret(lines)
	}
	return l.finish(org, chaincode, function, res, elapsed)
}

// ChannelInfo runs `peer channel getinfo` and returns the first captured
// output line.
func (l *Ledger) ChannelInfo(ctx context.Context) (string, error) {
	command, err := l.builder.ChannelInfoCommand()
	if err != nil {
		return "", err
	}
	lines, err := l.bridge.Invoke(ctx, command)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", errors.New("no output from channel getinfo")
	}
	return lines[0], nil
}

func (l *Ledger) finish(org, chaincode, function string, res Result, elapsed time.Duration) Result {
	l.logger.Info("ledger invocation",
		"chaincode", chaincode,
		"function", function,
		"org", org,
		"outcome", string(res.Outcome),
		"duration", elapsed,
	)
	if l.audit != nil {
		if err := l.audit.Record(audit.Entry{
			RequestID:  uuid.NewString(),
			Org:        org,
			Chaincode:  chaincode,
			Function:   function,
			Outcome:    string(res.Outcome),
			PayloadSum: audit.PayloadSum(res.Payload),
		}); err != nil {
			l.logger.Warn("audit record failed", "error", err)
		}
	}
	return res
}

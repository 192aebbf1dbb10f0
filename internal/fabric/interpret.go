package fabric

import "strings"

// Outcome classifies an interpreted ledger response.
type Outcome string

const (
	// OutcomeSuccess means the CLI reported status:200.
	OutcomeSuccess Outcome = "success"
	// OutcomeError covers every other status, a missing status token,
	// and unparseable output.
	OutcomeError Outcome = "error"
)

// ExceptionPayload is the safe fallback payload when the captured output
// cannot be parsed at all. Parsing failures are never fatal to callers.
const ExceptionPayload = "Exception."

// Result is the normalized outcome of one ledger invocation.
type Result struct {
	Outcome Outcome
	Payload string
}

// Err reports whether the result is an error outcome.
func (r Result) Err() bool { return r.Outcome == OutcomeError }

// Interpret parses captured output lines into a Result. The first line
// is scanned for a status:<code> token; 200 means success and the
// payload is the quote-stripped text after the payload: marker. Any
// other status, or no status token at all, is an error carrying the raw
// line (single quotes normalized to double quotes, as downstream JSON
// consumers expect). Missing or truncated output degrades to the
// ExceptionPayload error; never a panic, never a propagated parse
// failure.
func Interpret(lines []string) Result {
	if len(lines) == 0 || lines[0] == "" {
		return Result{OutcomeError, ExceptionPayload}
	}
	first := lines[0]

	idx := strings.LastIndex(first, "status:")
	if idx < 0 {
		return Result{OutcomeError, strings.ReplaceAll(first, "'", `"`)}
	}

	fields := strings.Split(first[idx+len("status:"):], " ")
	if fields[0] != "200" {
		return Result{OutcomeError, strings.ReplaceAll(first, "'", `"`)}
	}
	if len(fields) < 2 {
		return Result{OutcomeError, ExceptionPayload}
	}

	payload := strings.TrimPrefix(fields[1], "payload:")
	payload = strings.ReplaceAll(payload, `"`, "")
	return Result{OutcomeSuccess, payload}
}

package fabric

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// maxLineBytes bounds a single captured output line. Peer CLI result
// lines carry whole escaped payloads, so the default scanner limit is
// too small.
const maxLineBytes = 1 << 20

// Bridge executes built commands as child processes, one at a time.
// The peer CLI corrupts its output when invoked back-to-back against the
// single network endpoint, so the bridge serializes all callers behind a
// mutex and enforces a cool-down after every invocation. Latency is
// traded for output integrity.
type Bridge struct {
	mu       sync.Mutex
	lastDone time.Time
	cooldown time.Duration
	timeout  time.Duration
}

// NewBridge creates a Bridge with the given cool-down and per-invocation
// timeout.
func NewBridge(cooldown, timeout time.Duration) *Bridge {
	return &Bridge{cooldown: cooldown, timeout: timeout}
}

// Invoke runs command under `sh -c` with stdout and stderr merged (the
// CLI writes its status line to either stream depending on outcome) and
// streams output line by line until the process exits. Concurrent
// callers queue; no invocation starts before the previous one's finish
// time plus the cool-down. A timeout kills the whole process group and
// returns the lines captured so far together with the context error.
// Launch failures return an error; a nonzero exit alone does not, since
// the interpreter judges the captured lines.
func (b *Bridge) Invoke(ctx context.Context, command string) ([]string, error) {
	b.mu.Lock()
	defer func() {
		b.lastDone = time.Now()
		b.mu.Unlock()
	}()

	if !b.lastDone.IsZero() {
		if wait := b.cooldown - time.Since(b.lastDone); wait > 0 {
			time.Sleep(wait)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Kill the group: the interesting processes are the peer CLI
		// grandchildren, not the shell.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, fmt.Errorf("failed to start ledger client: %w", err)
	}
	pw.Close()

	var lines []string
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	pr.Close()
	_ = cmd.Wait()

	if ctx.Err() != nil {
		return lines, ctx.Err()
	}
	return lines, nil
}

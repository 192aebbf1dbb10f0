package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testEntry(cc, fn, outcome string) Entry {
	return Entry{
		RequestID:  "req-test",
		Org:        "org1",
		Chaincode:  cc,
		Function:   fn,
		Outcome:    outcome,
		PayloadSum: PayloadSum("payload"),
	}
}

func TestRecordAndVerifyChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invocations.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, fn := range []string{"invoke", "query", "list"} {
		if err := log.Record(testEntry("rreg", fn, "success")); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 3 {
		t.Errorf("expected 3 lines, got %d", result.Lines)
	}
}

func TestReopenContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invocations.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := log.Record(testEntry("pat", "invoke", "success")); err != nil {
		t.Fatalf("record: %v", err)
	}
	log.Close()

	log, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := log.Record(testEntry("token", "invoke", "error")); err != nil {
		t.Fatalf("record after reopen: %v", err)
	}
	log.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected chain to survive reopen: %s", result.Error)
	}
	if result.Lines != 2 {
		t.Errorf("expected 2 lines, got %d", result.Lines)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invocations.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	log.Record(testEntry("pat", "invoke", "success"))
	log.Record(testEntry("perm", "invoke", "success"))
	log.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), "success", "error__", 1)
	if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
		t.Fatal(err)
	}

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected tampering to be detected")
	}
	if result.ErrorLine != 2 {
		t.Errorf("expected break at line 2, got %d", result.ErrorLine)
	}
}

func TestPayloadNeverStoredRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invocations.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	secret := "0xddb5ab8c5405830359d2af4ec8d4bdf27bc4b8ee"
	entry := testEntry("intro", "invoke", "success")
	entry.PayloadSum = PayloadSum(secret)
	log.Record(entry)
	log.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), secret) {
			t.Fatal("raw payload leaked into audit log")
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("entry not valid JSON: %v", err)
		}
		if !strings.HasPrefix(e.PayloadSum, "sha256:") {
			t.Errorf("payload sum not a digest: %q", e.PayloadSum)
		}
	}
}

package fabric

import "testing"

func TestInterpretSuccess(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		want  string
	}{
		{
			name: "plain token payload",
			line: `2023-11-14 10:22:31.814 UTC [chaincodeCmd] chaincodeInvokeOrQuery -> INFO 001 Chaincode invoke successful. result: status:200 payload:"TOK1" `,
			want: "TOK1",
		},
		{
			name: "escaped struct payload keeps backslashes",
			line: `result: status:200 payload:"{\"Name\":\"foo\"}" `,
			want: `{\Name\:\foo\}`,
		},
		{
			name: "payload without quotes",
			line: `result: status:200 payload:abc123`,
			want: "abc123",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Interpret([]string{tt.line})
			if res.Outcome != OutcomeSuccess {
				t.Fatalf("expected success, got %s (%q)", res.Outcome, res.Payload)
			}
			if res.Payload != tt.want {
				t.Errorf("payload = %q, want %q", res.Payload, tt.want)
			}
		})
	}
}

func TestInterpretErrorStatus(t *testing.T) {
	res := Interpret([]string{`Error: endorsement failure ... result: status:500 payload:"" `})
	if res.Outcome != OutcomeError {
		t.Fatalf("expected error, got %s", res.Outcome)
	}
	if res.Payload == ExceptionPayload {
		t.Errorf("expected raw line payload, got fallback")
	}
}

func TestInterpretMissingStatusToken(t *testing.T) {
	line := "Error: chaincode 'pat' not found on channel"
	res := Interpret([]string{line})
	if res.Outcome != OutcomeError {
		t.Fatalf("expected error, got %s", res.Outcome)
	}
	// Single quotes are normalized for downstream JSON consumers.
	if res.Payload != `Error: chaincode "pat" not found on channel` {
		t.Errorf("payload = %q", res.Payload)
	}
}

func TestInterpretNeverThrows(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"no output", nil},
		{"empty line", []string{""}},
		{"status with nothing after", []string{"result: status:200"}},
		{"garbage bytes", []string{"\x00\xff\xfe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Interpret(tt.lines)
			if res.Outcome != OutcomeError {
				t.Errorf("expected error outcome, got %s", res.Outcome)
			}
		})
	}
}

func TestInterpretFallbackPayload(t *testing.T) {
	res := Interpret(nil)
	if res.Payload != ExceptionPayload {
		t.Errorf("expected %q, got %q", ExceptionPayload, res.Payload)
	}
	res = Interpret([]string{"result: status:200"})
	if res.Payload != ExceptionPayload {
		t.Errorf("expected %q for truncated success line, got %q", ExceptionPayload, res.Payload)
	}
}

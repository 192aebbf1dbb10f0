package audit

// TimestampFormat is the wire format for entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Entry is one line in the hash-chained JSONL invocation log. All fields
// are scalars to guarantee deterministic json.Marshal field order for
// reproducible hashing. Payloads are recorded as a SHA-256 digest only:
// they carry bearer tokens and tickets that must not land on disk.
type Entry struct {
	Timestamp  string `json:"ts"`
	RequestID  string `json:"request_id"`
	Org        string `json:"org"`
	Chaincode  string `json:"chaincode"`
	Function   string `json:"function"`
	Outcome    string `json:"outcome"`
	PayloadSum string `json:"payload_sha256"`
	PrevHash   string `json:"prev_hash"`
}

package uma

import (
	"fmt"
	"strings"
)

// The ledger client serializes structured return values with every
// quote escaped, and the interpreter's quote strip leaves a single
// backslash at each former string boundary. The recovery grammars below
// split on that backslash and walk the resulting token stream: a field
// name token is followed by a separator token, with the value two
// positions later. Unrecognized tokens are ignorable filler. This is an
// upstream defect to tolerate, not to fix.

// RecoveryError reports a payload the grammar could not recover a
// record from. Callers map it to a generic error response; it never
// escapes as a panic.
type RecoveryError struct {
	Grammar string
	Payload string
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("cannot recover %s record from payload %q", e.Grammar, e.Payload)
}

// ParseResourceDescription recovers a registered resource from a query
// payload. The second token must be ResourceScopes; otherwise the whole
// payload is malformed.
func ParseResourceDescription(payload string) (ResourceDescription, error) {
	toks := strings.Split(payload, `\`)
	if len(toks) < 2 || toks[1] != "ResourceScopes" {
		return ResourceDescription{}, &RecoveryError{Grammar: "resource description", Payload: payload}
	}
	var rd ResourceDescription
	for i, tok := range toks {
		switch tok {
		case "ResourceScopes":
			rd.ResourceScopes = collectScopes(toks, i)
		case "Description":
			rd.Description = tokenAt(toks, i+2)
		case "IconUri":
			rd.IconUri = tokenAt(toks, i+2)
		case "Name":
			rd.Name = tokenAt(toks, i+2)
		case "Type":
			rd.Type = tokenAt(toks, i+2)
		}
	}
	return rd, nil
}

// ParseTokenResult recovers a token exchange result. A payload with no
// backslash at all is a bare RPT. A payload whose second token is Error
// is a need_info directive. Anything else is malformed.
func ParseTokenResult(payload string) (TokenResult, error) {
	toks := strings.Split(payload, `\`)
	if len(toks) == 1 {
		return TokenResult{Token: payload}, nil
	}
	if len(toks) < 2 || toks[1] != "Error" {
		return TokenResult{}, &RecoveryError{Grammar: "token result", Payload: payload}
	}
	var tr TokenResult
	for i, tok := range toks {
		switch tok {
		case "Error":
			tr.Error = tokenAt(toks, i+2)
		case "Ticket":
			tr.Ticket = tokenAt(toks, i+2)
		case "RedirectUser":
			tr.RedirectUser = tokenAt(toks, i+2)
		}
	}
	return tr, nil
}

// ParseIntrospection recovers the introspection record. Fields may
// appear in any order; the scope list keeps its order.
func ParseIntrospection(payload string) (Introspection, error) {
	toks := strings.Split(payload, `\`)
	if len(toks) < 2 {
		return Introspection{}, &RecoveryError{Grammar: "introspection", Payload: payload}
	}
	var in Introspection
	for i, tok := range toks {
		switch tok {
		case "ResourceScopes":
			in.ResourceScopes = collectScopes(toks, i)
		case "Description":
			in.Description = tokenAt(toks, i+2)
		case "IconUri":
			in.IconUri = tokenAt(toks, i+2)
		case "Name":
			in.Name = tokenAt(toks, i+2)
		case "Type":
			in.Type = tokenAt(toks, i+2)
		case "Expire":
			in.Expire = tokenAt(toks, i+2)
		}
	}
	return in, nil
}

func tokenAt(toks []string, i int) string {
	if i < 0 || i >= len(toks) {
		return ""
	}
	return toks[i]
}

// collectScopes gathers the scope list that starts two tokens after the
// ResourceScopes name token. Value tokens alternate with separators
// until a separator carrying the closing bracket. The ledger stores a
// scope list as one comma+space joined string, so each value token is
// split back into its ordered elements.
func collectScopes(toks []string, i int) []string {
	if i+1 >= len(toks) || strings.Contains(toks[i+1], "]") {
		return nil
	}
	var scopes []string
	for j := i + 2; j < len(toks); j += 2 {
		scopes = append(scopes, strings.Split(toks[j], ", ")...)
		if j+1 >= len(toks) || strings.Contains(toks[j+1], "]") {
			break
		}
	}
	return scopes
}

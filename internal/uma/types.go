// Package uma holds the message types of the authorization grant flow
// and the recovery grammars that rebuild them from the ledger client's
// malformed structured output.
package uma

import (
	"fmt"
	"strings"
)

// ResourceDescription is a registered protected resource as recovered
// from a ledger query. Scopes are stored on the ledger as one delimited
// string and come back as an ordered slice.
type ResourceDescription struct {
	ResourceScopes []string `json:"resource_scopes"`
	Description    string   `json:"description"`
	IconUri        string   `json:"icon_uri"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
}

// TokenResult is the outcome of a token exchange: either a bare RPT or
// a need_info directive telling the caller to send the requesting party
// through claims gathering. Field names mirror the wire response.
type TokenResult struct {
	Token        string `json:"token,omitempty"`
	Error        string `json:"Error,omitempty"`
	Ticket       string `json:"Ticket,omitempty"`
	RedirectUser string `json:"RedirectUser,omitempty"`
}

// NeedInfo reports whether the result is a claims-gathering directive
// rather than a granted token.
func (t TokenResult) NeedInfo() bool { return t.Error != "" }

// Introspection is the normalized record a resource server receives
// when it introspects an RPT.
type Introspection struct {
	ResourceScopes []string `json:"ResourceScopes"`
	Description    string   `json:"Description,omitempty"`
	IconUri        string   `json:"IconUri,omitempty"`
	Name           string   `json:"Name,omitempty"`
	Type           string   `json:"Type,omitempty"`
	Expire         string   `json:"Expire,omitempty"`
}

// ClaimToken carries the three claims the policy predicates match
// against. It crosses the claims-gathering redirect boundary as a
// flattened string, so it must survive an exact round trip.
type ClaimToken struct {
	Iss string
	Sub string
	Aud string
}

// Flatten serializes the token for a redirect query parameter: a brace
// record with every quote and space removed.
func (c ClaimToken) Flatten() string {
	s := fmt.Sprintf("{iss:%s,sub:%s,aud:%s}", c.Iss, c.Sub, c.Aud)
	s = strings.ReplaceAll(s, `"`, "")
	return strings.ReplaceAll(s, " ", "")
}

// ParseFlattened reconstructs a ClaimToken from its flattened form.
// Values keep embedded colons (issuer URLs), so only the first colon of
// each field splits key from value.
func ParseFlattened(s string) (ClaimToken, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	var c ClaimToken
	for _, kv := range strings.Split(trimmed, ",") {
		parts := strings.SplitN(kv, ":", 2)
		if len(parts) != 2 {
			return ClaimToken{}, fmt.Errorf("malformed claim token field %q", kv)
		}
		switch parts[0] {
		case "iss":
			c.Iss = parts[1]
		case "sub":
			c.Sub = parts[1]
		case "aud":
			c.Aud = parts[1]
		default:
			return ClaimToken{}, fmt.Errorf("unknown claim token field %q", parts[0])
		}
	}
	if c.Iss == "" || c.Sub == "" || c.Aud == "" {
		return ClaimToken{}, fmt.Errorf("incomplete claim token %q", s)
	}
	return c, nil
}

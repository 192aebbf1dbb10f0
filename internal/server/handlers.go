package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ctiport/bcauth/internal/authen"
	"github.com/ctiport/bcauth/internal/uma"
)

// requireJSON enforces the Content-Type contract before any ledger call
// happens. Returns false after writing the error response.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	ct := strings.TrimSpace(strings.SplitN(r.Header.Get("Content-Type"), ";", 2)[0])
	if ct != "application/json" {
		writeError(w, http.StatusBadRequest, "not supported Content-Type")
		return false
	}
	return true
}

// bearerToken extracts the PAT from the Authorization header. Returns
// false after writing the error response.
func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		writeError(w, http.StatusBadRequest, "bearer token is needed")
		return "", false
	}
	return strings.TrimPrefix(h, "Bearer "), true
}

// recoveryFailed maps a grammar failure to the generic error payload.
func recoveryFailed(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "Exception.")
}

func (s *Server) patForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "pat.html", nil)
}

// patIssue hands control back to the registering client at the fixed
// registration endpoint, carrying the fresh PAT in the query string.
func (s *Server) patIssue(w http.ResponseWriter, r *http.Request) {
	uid := r.FormValue("uid")
	roID := r.FormValue("roId")
	rsID := r.FormValue("rsId")
	timestamp := r.FormValue("timestamp")
	timeSig := r.FormValue("timeSig")

	res := s.ledger.Call(r.Context(), "", "pat", "invoke", []string{roID, rsID, timestamp, timeSig})
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}

	q := url.Values{}
	q.Set("uid", uid)
	q.Set("pat", res.Payload)
	http.Redirect(w, r, s.uma.RegistrationEndpoint+"?"+q.Encode(), http.StatusMovedPermanently)
}

type resourceCreateRequest struct {
	ResourceDescription struct {
		ResourceScopes []string `json:"resource_scopes"`
		Description    string   `json:"description"`
		IconUri        string   `json:"icon_uri"`
		Name           string   `json:"name"`
		Type           string   `json:"type"`
	} `json:"resource_description"`
	Timestamp string `json:"timestamp"`
	TimeSig   string `json:"timeSig"`
}

func (s *Server) resourceCreate(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	pat, ok := bearerToken(w, r)
	if !ok {
		return
	}
	var req resourceCreateRequest
	if !readBody(w, r, &req) {
		return
	}

	// The ledger stores the scope list as one delimited string.
	scopes := strings.Join(req.ResourceDescription.ResourceScopes, ", ")
	args := []string{
		pat,
		scopes,
		req.ResourceDescription.Description,
		req.ResourceDescription.IconUri,
		req.ResourceDescription.Name,
		req.ResourceDescription.Type,
		req.Timestamp,
		req.TimeSig,
	}
	res := s.ledger.Call(r.Context(), "", "rreg", "invoke", args)
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}
	writeResponse(w, map[string]string{"resource_id": res.Payload})
}

func (s *Server) resourceListForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "rreg_list.html", nil)
}

func (s *Server) resourceList(w http.ResponseWriter, r *http.Request) {
	pat := r.FormValue("pat")
	orgName := r.FormValue("org_name")

	res := s.ledger.Call(r.Context(), orgName, "rreg", "list", []string{pat})
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}
	s.render(w, "resource_list.html", map[string]any{
		"PAT": pat,
		"IDs": strings.Split(res.Payload, ":"),
	})
}

// resourceQuery recovers the full description but returns only the
// name; the remaining fields stay internal to the flow.
func (s *Server) resourceQuery(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	pat, ok := bearerToken(w, r)
	if !ok {
		return
	}
	var req struct {
		ResourceID string `json:"resource_id"`
	}
	if !readBody(w, r, &req) {
		return
	}

	res := s.ledger.Call(r.Context(), "", "rreg", "query", []string{pat, req.ResourceID})
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}
	rd, err := uma.ParseResourceDescription(res.Payload)
	if err != nil {
		recoveryFailed(w)
		return
	}
	writeResponse(w, map[string]string{"name": rd.Name})
}

func (s *Server) policyForm(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	rid := r.URL.Query().Get("rid")
	if resource == "" || rid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "error: no resource name or resource id"})
		return
	}
	s.render(w, "policy_form.html", map[string]string{"Resource": resource, "RID": rid})
}

func (s *Server) policySet(w http.ResponseWriter, r *http.Request) {
	rid := r.FormValue("rid")
	iss := r.FormValue("iss")
	sub := r.FormValue("sub")
	aud := r.FormValue("aud")
	// An incomplete policy is reported in the body, not the status.
	if iss == "" || sub == "" || aud == "" {
		writeJSON(w, http.StatusOK, map[string]string{"message": "error: iss or sub or aud is not configured"})
		return
	}

	res := s.ledger.Call(r.Context(), "", "policy", "invoke", []string{rid, iss, sub, aud})
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}
	s.render(w, "policy_done.html", map[string]string{"RID": rid, "Iss": iss, "Sub": sub, "Aud": aud})
}

type permissionRequest struct {
	ResourceID    string   `json:"resource_id"`
	RequestScopes []string `json:"request_scopes"`
	Timestamp     string   `json:"timestamp"`
	TimeSig       string   `json:"timeSig"`
}

// permissionTicket issues a single-use ticket for (resource, scopes).
// The protection PAT is a deployment-bound configuration value, not a
// caller credential in this flow.
func (s *Server) permissionTicket(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req permissionRequest
	if !readBody(w, r, &req) {
		return
	}

	scopes := strings.Join(req.RequestScopes, ":")
	descriptor := "{" + req.ResourceID + `,\"` + scopes + `\"}`
	args := []string{s.uma.ProtectionPAT, descriptor, req.Timestamp, req.TimeSig}

	res := s.ledger.Call(r.Context(), "", "perm", "invoke", args)
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}
	writeResponse(w, map[string]string{"ticket": res.Payload})
}

type tokenRequest struct {
	GrantType        string `json:"grant_type"`
	Ticket           string `json:"ticket"`
	ClaimToken       string `json:"claim_token"`
	ClaimTokenFormat string `json:"claim_token_format"`
	Timestamp        string `json:"timestamp"`
	TimeSig          string `json:"timeSig"`
}

func (s *Server) tokenExchange(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req tokenRequest
	if !readBody(w, r, &req) {
		return
	}

	args := []string{req.GrantType, req.Ticket, req.ClaimToken, req.ClaimTokenFormat, req.Timestamp, req.TimeSig}
	res := s.ledger.Call(r.Context(), "", "token", "invoke", args)
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}
	tr, err := uma.ParseTokenResult(res.Payload)
	if err != nil {
		recoveryFailed(w)
		return
	}
	writeResponse(w, tr)
}

// claimsGathering starts the authentication detour: the ledger reissues
// the ticket and the requesting party is sent to the credential form
// with the whole continuation in the query string.
func (s *Server) claimsGathering(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	ticket := q.Get("ticket")
	claimsRedirectURI := q.Get("claims_redirect_uri")
	timestamp := q.Get("timestamp")
	timeSig := q.Get("timeSig")

	args := []string{clientID, ticket, claimsRedirectURI, timestamp, timeSig}
	res := s.ledger.Call(r.Context(), "", "claim", "invoke", args)
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}

	next := url.Values{}
	next.Set("ticket", res.Payload)
	next.Set("claims_redirect_uri", claimsRedirectURI)
	next.Set("client_id", clientID)
	next.Set("timestamp", timestamp)
	next.Set("timeSig", timeSig)
	http.Redirect(w, r, "/authen?"+next.Encode(), http.StatusMovedPermanently)
}

func (s *Server) authenForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticket := q.Get("ticket")
	claimsRedirectURI := q.Get("claims_redirect_uri")
	clientID := q.Get("client_id")
	timestamp := q.Get("timestamp")
	timeSig := q.Get("timeSig")

	res := s.ledger.Call(r.Context(), "", "claim", "invokeAuthen", []string{ticket, timestamp, timeSig})
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}
	s.render(w, "authen.html", map[string]string{
		"Ticket":            res.Payload,
		"ClientID":          clientID,
		"ClaimsRedirectURI": claimsRedirectURI,
	})
}

func (s *Server) authenSubmit(w http.ResponseWriter, r *http.Request) {
	uid := r.FormValue("uid")
	password := r.FormValue("password")
	ticket := r.FormValue("ticket")
	clientID := r.FormValue("client_id")
	claimsRedirectURI := r.FormValue("claims_redirect_uri")

	if err := s.creds.Verify(uid, password); err != nil {
		switch {
		case errors.Is(err, authen.ErrInvalidPassword):
			writeError(w, http.StatusBadRequest, "user id or password is invalid.")
		case errors.Is(err, authen.ErrUnknownUser):
			writeError(w, http.StatusBadRequest, "user id may not exists.")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	claim := uma.ClaimToken{Iss: s.uma.Issuer, Sub: uid, Aud: clientID}
	q := url.Values{}
	q.Set("uid", uid)
	q.Set("ticket", ticket)
	q.Set("claim_token", claim.Flatten())
	q.Set("token_endpoint", s.uma.TokenEndpoint)
	http.Redirect(w, r, claimsRedirectURI+"?"+q.Encode(), http.StatusMovedPermanently)
}

func (s *Server) introspect(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req struct {
		AccessToken string `json:"access_token"`
	}
	if !readBody(w, r, &req) {
		return
	}

	res := s.ledger.Call(r.Context(), "", "intro", "invoke", []string{s.uma.ProtectionPAT, req.AccessToken})
	if res.Err() {
		writeError(w, http.StatusBadRequest, res.Payload)
		return
	}
	record, err := uma.ParseIntrospection(res.Payload)
	if err != nil {
		recoveryFailed(w)
		return
	}
	writeResponse(w, record)
}

// blockhash reports channel head info for operators. The client prints
// the info as a brace record at the tail of its output.
func (s *Server) blockhash(w http.ResponseWriter, r *http.Request) {
	line, err := s.ledger.ChannelInfo(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	idx := strings.LastIndex(line, "{")
	if idx < 0 {
		recoveryFailed(w)
		return
	}
	body := strings.ReplaceAll(line[idx+1:], "}", "")
	fields := strings.Split(body, ",")
	if len(fields) < 3 {
		recoveryFailed(w)
		return
	}
	last := func(s string) string {
		parts := strings.Split(s, ":")
		return strings.ReplaceAll(parts[len(parts)-1], `"`, "")
	}
	s.render(w, "blockhash.html", map[string]string{
		"Height":            last(fields[0]),
		"CurrentBlockHash":  last(fields[1]),
		"PreviousBlockHash": last(fields[2]),
	})
}

package engine

import (
	"encoding/json"
	"fmt"
)

// Result carries the diagnostic fields every engine response has.
type Result struct {
	ResultCode    string `json:"resultCode,omitempty"`
	ResultMessage string `json:"resultMessage,omitempty"`

	// rawAction is the action name as the engine sent it, including names
	// that decode to an Unknown action.
	rawAction string
}

func (res *Result) actionName(a fmt.Stringer) string {
	if res.rawAction != "" {
		return res.rawAction
	}
	return a.String()
}

// decodeResponse unmarshals raw into v, a plain alias of a response type,
// and returns the action name found in raw.
func decodeResponse(raw []byte, v any) (string, error) {
	if err := json.Unmarshal(raw, v); err != nil {
		return "", err
	}
	var head struct {
		Action string `json:"action"`
	}
	_ = json.Unmarshal(raw, &head)
	return head.Action, nil
}

// AuthorizationRequest asks the engine to process an authorization request.
type AuthorizationRequest struct {
	// Parameters is the raw query string of the request to /authorize.
	Parameters string `json:"parameters"`
}

// Scope is one scope the client asked for.
type Scope struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Client describes the client behind an authorization request.
type Client struct {
	ClientID                 int64        `json:"clientId,omitempty"`
	ClientIDAlias            string       `json:"clientIdAlias,omitempty"`
	ClientName               string       `json:"clientName,omitempty"`
	ClientSource             ClientSource `json:"clientSource,omitempty"`
	EntityID                 string       `json:"entityId,omitempty"`
	MetadataDocumentLocation string       `json:"metadataDocumentLocation,omitempty"`
}

// AuthorizationResponse is the engine's answer to an authorization request.
type AuthorizationResponse struct {
	Result

	Action          AuthorizationAction `json:"action"`
	ResponseContent string              `json:"responseContent,omitempty"`
	Ticket          string              `json:"ticket,omitempty"`
	Client          *Client             `json:"client,omitempty"`
	Scopes          []Scope             `json:"scopes,omitempty"`
	Resources       []string            `json:"resources,omitempty"`
}

// ActionName returns the action as the engine named it, including names
// that decode to AuthorizationActionUnknown.
func (r *AuthorizationResponse) ActionName() string { return r.actionName(r.Action) }

func (r *AuthorizationResponse) UnmarshalJSON(raw []byte) error {
	type plain AuthorizationResponse
	name, err := decodeResponse(raw, (*plain)(r))
	r.rawAction = name
	return err
}

// ScopeNames returns the names of r.Scopes in order, skipping unnamed
// entries.
func (r *AuthorizationResponse) ScopeNames() []string {
	names := make([]string, 0, len(r.Scopes))
	for _, s := range r.Scopes {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

// AuthorizationFailRequest abandons the request identified by Ticket.
type AuthorizationFailRequest struct {
	Ticket      string     `json:"ticket"`
	Reason      FailReason `json:"reason"`
	Description string     `json:"description,omitempty"`
}

// AuthorizationFailResponse carries the error response for the client.
type AuthorizationFailResponse struct {
	Result

	Action          AuthorizationFailAction `json:"action"`
	ResponseContent string                  `json:"responseContent,omitempty"`
}

// ActionName returns the action as the engine named it.
func (r *AuthorizationFailResponse) ActionName() string { return r.actionName(r.Action) }

func (r *AuthorizationFailResponse) UnmarshalJSON(raw []byte) error {
	type plain AuthorizationFailResponse
	name, err := decodeResponse(raw, (*plain)(r))
	r.rawAction = name
	return err
}

// AuthorizationIssueRequest completes the request identified by Ticket on
// behalf of Subject.
type AuthorizationIssueRequest struct {
	Ticket  string `json:"ticket"`
	Subject string `json:"subject"`

	// Claims and JWTAtClaims are JSON objects encoded as strings.
	Claims      string `json:"claims,omitempty"`
	JWTAtClaims string `json:"jwtAtClaims,omitempty"`

	Scopes []string `json:"scopes,omitempty"`
}

// AuthorizationIssueResponse carries the redirect back to the client.
type AuthorizationIssueResponse struct {
	Result

	Action          AuthorizationIssueAction `json:"action"`
	ResponseContent string                   `json:"responseContent,omitempty"`
}

// ActionName returns the action as the engine named it.
func (r *AuthorizationIssueResponse) ActionName() string { return r.actionName(r.Action) }

func (r *AuthorizationIssueResponse) UnmarshalJSON(raw []byte) error {
	type plain AuthorizationIssueResponse
	name, err := decodeResponse(raw, (*plain)(r))
	r.rawAction = name
	return err
}

// TokenRequest forwards a token endpoint request.
type TokenRequest struct {
	// Parameters is the raw form-encoded request body.
	Parameters   string `json:"parameters"`
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// TokenResponse is the engine's answer to a token request.
type TokenResponse struct {
	Result

	Action          TokenAction `json:"action"`
	ResponseContent string      `json:"responseContent,omitempty"`
}

// ActionName returns the action as the engine named it.
func (r *TokenResponse) ActionName() string { return r.actionName(r.Action) }

func (r *TokenResponse) UnmarshalJSON(raw []byte) error {
	type plain TokenResponse
	name, err := decodeResponse(raw, (*plain)(r))
	r.rawAction = name
	return err
}

package engine

// AuthorizationAction is the next step the engine asks for after processing
// an authorization request.
type AuthorizationAction uint8

const (
	AuthorizationActionUnknown AuthorizationAction = iota
	AuthorizationActionInternalServerError
	AuthorizationActionBadRequest
	AuthorizationActionLocation
	AuthorizationActionForm
	AuthorizationActionNoInteraction
	AuthorizationActionInteraction
)

var authorizationActionNames = []string{
	"UNKNOWN",
	"INTERNAL_SERVER_ERROR",
	"BAD_REQUEST",
	"LOCATION",
	"FORM",
	"NO_INTERACTION",
	"INTERACTION",
}

func (a AuthorizationAction) String() string { return name(authorizationActionNames, a) }

func (a AuthorizationAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AuthorizationAction) UnmarshalText(text []byte) error {
	*a = lookup[AuthorizationAction](authorizationActionNames, text)
	return nil
}

// AuthorizationFailAction is the engine's answer to a fail request.
type AuthorizationFailAction uint8

const (
	AuthorizationFailActionUnknown AuthorizationFailAction = iota
	AuthorizationFailActionInternalServerError
	AuthorizationFailActionBadRequest
	AuthorizationFailActionLocation
	AuthorizationFailActionForm
)

var authorizationFailActionNames = []string{
	"UNKNOWN",
	"INTERNAL_SERVER_ERROR",
	"BAD_REQUEST",
	"LOCATION",
	"FORM",
}

func (a AuthorizationFailAction) String() string { return name(authorizationFailActionNames, a) }

func (a AuthorizationFailAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AuthorizationFailAction) UnmarshalText(text []byte) error {
	*a = lookup[AuthorizationFailAction](authorizationFailActionNames, text)
	return nil
}

// AuthorizationIssueAction is the engine's answer to an issue request.
type AuthorizationIssueAction uint8

const (
	AuthorizationIssueActionUnknown AuthorizationIssueAction = iota
	AuthorizationIssueActionInternalServerError
	AuthorizationIssueActionBadRequest
	AuthorizationIssueActionLocation
	AuthorizationIssueActionForm
)

var authorizationIssueActionNames = []string{
	"UNKNOWN",
	"INTERNAL_SERVER_ERROR",
	"BAD_REQUEST",
	"LOCATION",
	"FORM",
}

func (a AuthorizationIssueAction) String() string { return name(authorizationIssueActionNames, a) }

func (a AuthorizationIssueAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AuthorizationIssueAction) UnmarshalText(text []byte) error {
	*a = lookup[AuthorizationIssueAction](authorizationIssueActionNames, text)
	return nil
}

// TokenAction is the engine's answer to a token request.
type TokenAction uint8

const (
	TokenActionUnknown TokenAction = iota
	TokenActionInternalServerError
	TokenActionInvalidClient
	TokenActionBadRequest
	TokenActionPassword
	TokenActionOK
	TokenActionTokenExchange
	TokenActionJWTBearer
)

var tokenActionNames = []string{
	"UNKNOWN",
	"INTERNAL_SERVER_ERROR",
	"INVALID_CLIENT",
	"BAD_REQUEST",
	"PASSWORD",
	"OK",
	"TOKEN_EXCHANGE",
	"JWT_BEARER",
}

func (a TokenAction) String() string { return name(tokenActionNames, a) }

func (a TokenAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *TokenAction) UnmarshalText(text []byte) error {
	*a = lookup[TokenAction](tokenActionNames, text)
	return nil
}

// ClientSource says how the engine learned about a client.
type ClientSource uint8

const (
	ClientSourceUnknown ClientSource = iota
	ClientSourceStaticRegistration
	ClientSourceDynamicRegistration
	ClientSourceAutomaticRegistration
	ClientSourceExplicitRegistration
	ClientSourceMetadataDocument
)

var clientSourceNames = []string{
	"UNKNOWN",
	"STATIC_REGISTRATION",
	"DYNAMIC_REGISTRATION",
	"AUTOMATIC_REGISTRATION",
	"EXPLICIT_REGISTRATION",
	"METADATA_DOCUMENT",
}

func (s ClientSource) String() string { return name(clientSourceNames, s) }

func (s ClientSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ClientSource) UnmarshalText(text []byte) error {
	*s = lookup[ClientSource](clientSourceNames, text)
	return nil
}

// FailReason explains to the engine why an authorization request is being
// abandoned.
type FailReason string

const (
	FailReasonDenied      FailReason = "DENIED"
	FailReasonServerError FailReason = "SERVER_ERROR"
)

type action interface {
	~uint8
}

// lookup maps a wire name to its index in names. Unrecognized names map to
// the zero value, which is always the Unknown variant.
func lookup[T action](names []string, text []byte) T {
	s := string(text)
	for i, n := range names {
		if i > 0 && n == s {
			return T(i)
		}
	}
	return 0
}

func name[T action](names []string, v T) string {
	if int(v) < len(names) {
		return names[v]
	}
	return names[0]
}

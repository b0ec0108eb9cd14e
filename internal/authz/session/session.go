package session

// Session is the server-side record behind one session cookie.
type Session struct {
	// ID is the store key. It travels only in the signed cookie.
	ID string `json:"-"`

	// Authorization is the pending interaction, if any.
	Authorization *InteractionSession `json:"authorization,omitempty"`

	// SampleClient is the demo client's in-flight PKCE state.
	SampleClient *SampleClientState `json:"sampleClient,omitempty"`

	// LoggedIn is set by the demo login page.
	LoggedIn bool `json:"loggedIn,omitempty"`
}

// InteractionSession holds what /consent needs from /authorize. The ticket
// is single-use: it is cleared before the engine is asked to act on it.
type InteractionSession struct {
	Ticket          string   `json:"ticket"`
	ScopesToConsent []string `json:"scopesToConsent"`
}

// SampleClientState is the PKCE verifier and state the sample client sent
// with its authorization request.
type SampleClientState struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
}

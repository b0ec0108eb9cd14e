package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/session"
	ierrors "github.com/jamesprial/mcp-oauth-authlete/internal/errors"
)

// Demo login routes.
const (
	PathLogin  = "/login"
	PathLogout = "/logout"
)

// DescLoginUnavailable is sent when the login state cannot be read or written.
const DescLoginUnavailable = "Login session is unavailable"

// LoginOptions configures the demo login pages.
type LoginOptions struct {
	// BaseURL is the public origin of this server. Absolute return_to
	// targets must point at its host.
	BaseURL string

	Sessions *session.Manager
	Logger   *slog.Logger
}

// loginHandler serves GET /login, POST /login, and POST /logout. The login
// state is a flag on the browser session and grants nothing by itself.
type loginHandler struct {
	host     string
	sessions *session.Manager
	logger   *slog.Logger
}

type loginView struct {
	LoggedIn bool
	ReturnTo string
}

func newLoginHandler(opts LoginOptions) *loginHandler {
	if opts.Sessions == nil {
		panic("session manager cannot be nil")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	var host string
	if u, err := url.Parse(opts.BaseURL); err == nil {
		host = u.Host
	}
	return &loginHandler{host: host, sessions: opts.Sessions, logger: opts.Logger}
}

// NewLoginHandler serves the demo login page on GET and logs the browser in
// on POST.
func NewLoginHandler(opts LoginOptions) http.Handler {
	h := newLoginHandler(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			h.page(w, r)
		case http.MethodPost:
			h.login(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD, POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// NewLogoutHandler ends the demo login and redirects to return_to.
func NewLogoutHandler(opts LoginOptions) http.Handler {
	return http.HandlerFunc(newLoginHandler(opts).logout)
}

// ResolveReturnTo returns candidate when it is a local path or an absolute
// http(s) URL on host. Anything else falls back to the login page.
func ResolveReturnTo(candidate, host string) string {
	if candidate == "" {
		return PathLogin
	}
	if strings.HasPrefix(candidate, "/") {
		// "//x" and "/\x" are read by browsers as another origin.
		if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, `/\`) {
			return PathLogin
		}
		return candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || host == "" || u.Host != host {
		return PathLogin
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return PathLogin
	}
	return u.String()
}

// loggedIn reports whether r carries a logged-in session. A missing or
// tampered cookie is a logged-out browser.
func (h *loginHandler) loggedIn(r *http.Request) (bool, error) {
	s, err := h.sessions.Load(r)
	switch {
	case err == nil:
		return s.LoggedIn, nil
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrInvalidCookie):
		return false, nil
	default:
		return false, err
	}
}

func (h *loginHandler) page(w http.ResponseWriter, r *http.Request) {
	noStore(w)

	candidate := r.URL.Query().Get("return_to")
	if candidate == "" {
		candidate = r.Referer()
	}
	returnTo := ResolveReturnTo(candidate, h.host)

	in, err := h.loggedIn(r)
	if err != nil {
		h.unavailable(w, r, err)
		return
	}
	if in && returnTo != PathLogin {
		redirect(w, r, returnTo)
		return
	}

	if err := render(w, loginTemplate, loginView{LoggedIn: in, ReturnTo: returnTo}); err != nil {
		h.logger.ErrorContext(r.Context(), "login page render failed", ierrors.LogAttrs(err)...)
	}
}

func (h *loginHandler) login(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	returnTo := ResolveReturnTo(r.PostFormValue("return_to"), h.host)

	s, err := h.sessions.LoadOrNew(r)
	if err != nil {
		h.unavailable(w, r, err)
		return
	}
	s.LoggedIn = true
	if err := h.sessions.Save(r.Context(), w, s); err != nil {
		h.unavailable(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "demo login")
	redirect(w, r, returnTo)
}

func (h *loginHandler) logout(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	returnTo := ResolveReturnTo(r.PostFormValue("return_to"), h.host)

	s, err := h.sessions.Load(r)
	switch {
	case err == nil:
		if err := h.sessions.Destroy(r.Context(), w, s); err != nil {
			h.unavailable(w, r, err)
			return
		}
		h.logger.InfoContext(r.Context(), "demo logout")
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrInvalidCookie):
	default:
		h.unavailable(w, r, err)
		return
	}

	redirect(w, r, returnTo)
}

func (h *loginHandler) unavailable(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "login session unavailable", ierrors.LogAttrs(err)...)
	writeServerError(w, http.StatusInternalServerError, DescLoginUnavailable)
}

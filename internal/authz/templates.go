package authz

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	pkgoauth "github.com/jamesprial/mcp-oauth-authlete/pkg/oauth"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	consentTemplate      = template.Must(template.ParseFS(templateFS, "templates/consent.html"))
	sampleClientTemplate = template.Must(template.ParseFS(templateFS, "templates/sample_client.html"))
	loginTemplate        = template.Must(template.ParseFS(templateFS, "templates/login.html"))
)

// render executes t fully before writing so a template failure never leaves
// a half-written page.
func render(w http.ResponseWriter, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set(pkgoauth.HeaderContentType, pkgoauth.ContentTypeHTML)
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}

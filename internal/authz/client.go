package authz

import (
	"fmt"
	"strconv"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
)

// ResolveClientID returns the identifier shown to the user for c. It
// depends on how the engine learned about the client:
//
//   - automatic and explicit registration use the entity ID, which must be
//     present;
//   - metadata documents use the document location, else the alias;
//   - everything else uses the alias, else the numeric client ID.
//
// A nil client resolves to "".
func ResolveClientID(c *engine.Client) (string, error) {
	if c == nil {
		return "", nil
	}

	switch c.ClientSource {
	case engine.ClientSourceAutomaticRegistration, engine.ClientSourceExplicitRegistration:
		if c.EntityID == "" {
			return "", fmt.Errorf("%w: client source %s", ErrClientEntityIDMissing, c.ClientSource)
		}
		return c.EntityID, nil
	case engine.ClientSourceMetadataDocument:
		if c.MetadataDocumentLocation != "" {
			return c.MetadataDocumentLocation, nil
		}
		return c.ClientIDAlias, nil
	default:
		if c.ClientIDAlias != "" {
			return c.ClientIDAlias, nil
		}
		if c.ClientID != 0 {
			return strconv.FormatInt(c.ClientID, 10), nil
		}
		return "", nil
	}
}

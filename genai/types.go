package genai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Capability tags advertised by the proxy config endpoint.
const (
	CapabilityChat      = "chat"
	CapabilityTools     = "tools"
	CapabilityEmbedding = "embedding"
)

// Credentials is the normalized, format-independent credential record
// consumed by the request layer. EndpointBase never carries the /openai
// wire suffix; the request adapter appends it when building URLs.
// Treat a constructed Credentials as immutable: it is safe for
// unsynchronized concurrent reads.
type Credentials struct {
	EndpointBase string
	APIKey       string
	ConfigURL    string

	// Model is the declared model name for single-model bindings.
	// Empty means the caller must go through discovery.
	Model string

	// Capabilities are the declared capability tags for Model,
	// canonical lower-case.
	Capabilities []string
}

// String masks the bearer token. Credentials regularly end up in log
// fields and error context, so the key must never leak through here.
func (c Credentials) String() string {
	key := ""
	if c.APIKey != "" {
		key = "***"
	}
	return fmt.Sprintf("Credentials{EndpointBase:%s, APIKey:%s, ConfigURL:%s, Model:%s}",
		c.EndpointBase, key, c.ConfigURL, c.Model)
}

// MarshalJSON masks the bearer token.
func (c Credentials) MarshalJSON() ([]byte, error) {
	type masked struct {
		EndpointBase string   `json:"endpoint_base"`
		APIKey       string   `json:"api_key,omitempty"`
		ConfigURL    string   `json:"config_url,omitempty"`
		Model        string   `json:"model,omitempty"`
		Capabilities []string `json:"capabilities,omitempty"`
	}
	out := masked{
		EndpointBase: c.EndpointBase,
		ConfigURL:    c.ConfigURL,
		Model:        c.Model,
		Capabilities: c.Capabilities,
	}
	if c.APIKey != "" {
		out.APIKey = "***"
	}
	return json.Marshal(out)
}

// TokenExpiry reports the expiry of the bearer token when it is a JWT,
// which is what managed-service proxies issue. The token is not verified;
// this only reads the exp claim so callers can warn about stale bindings.
func (c Credentials) TokenExpiry() (time.Time, bool) {
	tok, _, err := jwt.NewParser().ParseUnverified(c.APIKey, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Model is one entry of a discovered model catalog.
type Model struct {
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities,omitempty"`
	Aliases      []string `json:"aliases,omitempty"`
}

// HasCapability reports whether the model advertises the given capability.
// Comparison is case-insensitive.
func (m Model) HasCapability(capability string) bool {
	for _, c := range m.Capabilities {
		if strings.EqualFold(c, capability) {
			return true
		}
	}
	return false
}

// servesChat reports whether the model is eligible for completion traffic:
// its capability set must intersect {chat, tools}.
func (m Model) servesChat() bool {
	return m.HasCapability(CapabilityChat) || m.HasCapability(CapabilityTools)
}

// Catalog is an immutable snapshot of one successful discovery round trip.
// Entries keep source response order and are unique by name.
type Catalog struct {
	models []Model
}

// NewCatalog builds a catalog from discovered models. Capabilities are
// normalized to lower-case and duplicate names are dropped, first
// occurrence wins.
func NewCatalog(models []Model) *Catalog {
	seen := make(map[string]struct{}, len(models))
	out := make([]Model, 0, len(models))
	for _, m := range models {
		if m.Name == "" {
			continue
		}
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		m.Capabilities = NormalizeCapabilities(m.Capabilities)
		out = append(out, m)
	}
	return &Catalog{models: out}
}

// Models returns every discovered model, including embedding-only entries.
func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// ChatModels returns the filtered view used for completion and default
// selection: only models whose capabilities intersect {chat, tools},
// in source response order.
func (c *Catalog) ChatModels() []Model {
	out := make([]Model, 0, len(c.models))
	for _, m := range c.models {
		if m.servesChat() {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of models in the full catalog.
func (c *Catalog) Len() int { return len(c.models) }

// NormalizeCapabilities lower-cases and de-duplicates capability tags,
// preserving order. A missing list defaults to {chat}: older single-model
// bindings and the bare listing endpoint carry no capability metadata.
func NormalizeCapabilities(caps []string) []string {
	if len(caps) == 0 {
		return []string{CapabilityChat}
	}
	seen := make(map[string]struct{}, len(caps))
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		return []string{CapabilityChat}
	}
	return out
}

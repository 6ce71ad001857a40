package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/averhold/genaibind/genai"
	"github.com/averhold/genaibind/internal/metrics"
	"github.com/averhold/genaibind/internal/tlsutil"
)

const (
	// listingPath is the generic OpenAI-wire model listing, relative to
	// the canonical endpoint base.
	listingPath = "/openai/v1/models"

	instrumentationName = "github.com/averhold/genaibind/discovery"

	defaultTimeout = 30 * time.Second
)

// Engine discovers and caches the model catalog for one set of credentials.
// The cache cell is safe for concurrent reads once populated; concurrent
// first-time discovery is allowed to race, last write wins — both writers
// derive from the same upstream source.
type Engine struct {
	creds  genai.Credentials
	client *http.Client
	log    *zap.Logger
	tracer trace.Tracer

	mu      sync.RWMutex
	catalog *genai.Catalog
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient replaces the default hardened HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) { e.client = client }
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithTimeout sets the per-round-trip HTTP timeout on the default client.
// Non-positive values keep the default bound instead of disabling it.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		e.client = tlsutil.SecureHTTPClient(timeout)
	}
}

// New creates a discovery engine for the given credentials.
func New(creds genai.Credentials, opts ...Option) *Engine {
	e := &Engine{
		creds:  creds,
		client: tlsutil.SecureHTTPClient(defaultTimeout),
		log:    zap.NewNop(),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the full model catalog, running discovery on first use.
// A failed discovery caches nothing.
func (e *Engine) Catalog(ctx context.Context) (*genai.Catalog, error) {
	e.mu.RLock()
	cached := e.catalog
	e.mu.RUnlock()
	if cached != nil {
		metrics.CacheHits.Inc()
		return cached, nil
	}

	catalog, err := e.discover(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.catalog = catalog
	e.mu.Unlock()
	return catalog, nil
}

// ChatModels returns the filtered catalog view: models whose capabilities
// intersect {chat, tools}, in source response order.
func (e *Engine) ChatModels(ctx context.Context) ([]genai.Model, error) {
	catalog, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.ChatModels(), nil
}

// DefaultModel returns the first entry of the filtered view. The order is
// the source response order, never re-sorted.
func (e *Engine) DefaultModel(ctx context.Context) (string, error) {
	chat, err := e.ChatModels(ctx)
	if err != nil {
		return "", err
	}
	if len(chat) == 0 {
		return "", genai.NewError(genai.ErrNoEligibleModel,
			"no discovered model offers chat or tools capability").
			WithEndpoint(e.creds.EndpointBase)
	}
	return chat[0].Name, nil
}

// Invalidate drops the cached catalog. The next read re-discovers.
// Invalidation is explicit only; the engine never refreshes on its own.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.catalog = nil
	e.mu.Unlock()
}

// discover runs the config-then-listing hop. It never returns an empty
// catalog: callers must not proceed with partial discovery results.
func (e *Engine) discover(ctx context.Context) (*genai.Catalog, error) {
	ctx, span := e.tracer.Start(ctx, "discovery.discover",
		trace.WithAttributes(attribute.String("endpoint_base", e.creds.EndpointBase)))
	defer span.End()

	var configErr error
	if e.creds.ConfigURL != "" {
		models, err := e.fetchConfig(ctx)
		if err == nil {
			metrics.DiscoveryRounds.WithLabelValues(metrics.SourceConfig, metrics.OutcomeSuccess).Inc()
			span.SetAttributes(attribute.String("source", metrics.SourceConfig))
			return genai.NewCatalog(models), nil
		}
		configErr = err
		metrics.DiscoveryRounds.WithLabelValues(metrics.SourceConfig, metrics.OutcomeFailure).Inc()
		e.log.Debug("config endpoint discovery failed, falling back to listing",
			zap.String("config_url", e.creds.ConfigURL),
			zap.Error(err))
	}

	models, listingErr := e.fetchListing(ctx)
	if listingErr != nil {
		metrics.DiscoveryRounds.WithLabelValues(metrics.SourceListing, metrics.OutcomeFailure).Inc()
		return nil, genai.NewError(genai.ErrModelDiscovery,
			"model discovery failed for both config and listing sources").
			WithEndpoint(e.creds.EndpointBase).
			WithCause(errors.Join(configErr, listingErr))
	}
	metrics.DiscoveryRounds.WithLabelValues(metrics.SourceListing, metrics.OutcomeSuccess).Inc()
	span.SetAttributes(attribute.String("source", metrics.SourceListing))
	return genai.NewCatalog(models), nil
}

// configResponse is the config endpoint payload.
type configResponse struct {
	Name             string `json:"name"`
	AdvertisedModels []struct {
		Name         string   `json:"name"`
		Capabilities []string `json:"capabilities"`
		Aliases      []string `json:"aliases"`
	} `json:"advertisedModels"`
}

func (e *Engine) fetchConfig(ctx context.Context) ([]genai.Model, error) {
	var resp configResponse
	if err := e.getJSON(ctx, e.creds.ConfigURL, &resp); err != nil {
		return nil, err
	}
	if len(resp.AdvertisedModels) == 0 {
		return nil, genai.NewError(genai.ErrModelDiscovery,
			"config endpoint advertised no models").WithEndpoint(e.creds.ConfigURL)
	}
	models := make([]genai.Model, 0, len(resp.AdvertisedModels))
	for _, m := range resp.AdvertisedModels {
		models = append(models, genai.Model{
			Name:         m.Name,
			Capabilities: m.Capabilities,
			Aliases:      m.Aliases,
		})
	}
	return models, nil
}

// listingResponse is the generic OpenAI-wire model listing payload. It
// carries bare identifiers only, so capabilities default to {chat}.
type listingResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (e *Engine) fetchListing(ctx context.Context) ([]genai.Model, error) {
	listingURL := strings.TrimRight(e.creds.EndpointBase, "/") + listingPath

	var resp listingResponse
	if err := e.getJSON(ctx, listingURL, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, genai.NewError(genai.ErrModelDiscovery,
			"listing endpoint returned no models").WithEndpoint(listingURL)
	}
	models := make([]genai.Model, 0, len(resp.Data))
	for _, m := range resp.Data {
		models = append(models, genai.Model{
			Name:         m.ID,
			Capabilities: []string{genai.CapabilityChat},
		})
	}
	return models, nil
}

// getJSON performs one authenticated round trip and decodes the body.
// Failures map into the error taxonomy: transport errors stay retryable
// for the caller of the engine's owner, non-success statuses classify by
// code, and an unparseable body counts as a failed source.
func (e *Engine) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.creds.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return genai.ClassifyTransport(err).WithEndpoint(rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := genai.ReadErrorMessage(resp.Body)
		return genai.ClassifyStatus(resp.StatusCode, msg, resp.Header.Get("Retry-After")).
			WithEndpoint(rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return genai.NewError(genai.ErrModelDiscovery,
			"failed to decode discovery response").WithEndpoint(rawURL).WithCause(err)
	}
	return nil
}

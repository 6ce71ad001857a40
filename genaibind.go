// Package genaibind connects a workload to an enterprise-managed,
// OpenAI-wire-compatible inference proxy through externally issued service
// bindings.
//
// Usage:
//
//	import "github.com/averhold/genaibind"
//
//	settings, err := config.Load("")          // env-driven
//	p, err := genaibind.New(settings)
//	model, err := p.ResolveModel(ctx)         // declared model or discovery
//	creds := p.Credentials()                  // endpoint base + bearer token
//
// The provider resolves credentials once at construction. Model discovery
// runs lazily on first use when the binding declares no model, and the
// resulting catalog is cached until Invalidate is called.
package genaibind

import (
	"context"

	"go.uber.org/zap"

	"github.com/averhold/genaibind/binding"
	"github.com/averhold/genaibind/config"
	"github.com/averhold/genaibind/discovery"
	"github.com/averhold/genaibind/genai"
)

// Provider is the resolved handle to one proxy binding. The request layer
// takes Credentials() and the resolved model; payload schema, transport
// suffix, and streaming are its concern, not this package's.
type Provider struct {
	creds  genai.Credentials
	engine *discovery.Engine
	log    *zap.Logger
}

// Option configures the Provider created by [New].
type Option func(*providerOptions)

type providerOptions struct {
	log     *zap.Logger
	engOpts []discovery.Option
}

// WithLogger sets a custom zap logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *providerOptions) { o.log = log }
}

// WithDiscoveryOptions passes options through to the discovery engine,
// such as a custom HTTP client for tests.
func WithDiscoveryOptions(opts ...discovery.Option) Option {
	return func(o *providerOptions) { o.engOpts = append(o.engOpts, opts...) }
}

// New resolves credentials from the configured sources and returns a ready
// Provider. Resolution failures surface the taxonomy errors from the
// binding package; nothing is retried here.
func New(settings *config.Settings, opts ...Option) (*Provider, error) {
	if settings == nil {
		settings = config.Defaults()
	}
	po := &providerOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(po)
	}

	resolver := binding.NewResolver(binding.Sources{
		Endpoint:    settings.Endpoint,
		APIKey:      settings.APIKey,
		ConfigURL:   settings.ConfigURL,
		Model:       settings.Model,
		CatalogJSON: settings.CatalogJSON,
		BindingName: settings.BindingName,
		AllowHTTP:   settings.AllowHTTP,
	}, po.log)

	creds, err := resolver.Resolve()
	if err != nil {
		return nil, err
	}

	engOpts := append([]discovery.Option{
		discovery.WithLogger(po.log),
		discovery.WithTimeout(settings.Timeout),
	}, po.engOpts...)

	return &Provider{
		creds:  creds,
		engine: discovery.New(creds, engOpts...),
		log:    po.log,
	}, nil
}

// Credentials returns the canonical credential record. The value is
// immutable and safe for concurrent reads.
func (p *Provider) Credentials() genai.Credentials { return p.creds }

// ResolveModel returns the model to use for completion traffic: the
// declared model when the binding or configuration pins one, otherwise the
// discovery default (first entry of the filtered catalog view).
func (p *Provider) ResolveModel(ctx context.Context) (string, error) {
	if p.creds.Model != "" {
		return p.creds.Model, nil
	}
	return p.engine.DefaultModel(ctx)
}

// Models returns the full discovered catalog, including embedding-only
// entries.
func (p *Provider) Models(ctx context.Context) (*genai.Catalog, error) {
	return p.engine.Catalog(ctx)
}

// ChatModels returns the filtered catalog view eligible for completion
// and selection.
func (p *Provider) ChatModels(ctx context.Context) ([]genai.Model, error) {
	return p.engine.ChatModels(ctx)
}

// Invalidate drops the cached catalog so the next read re-discovers.
func (p *Provider) Invalidate() { p.engine.Invalidate() }

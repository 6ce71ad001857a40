package binding

import (
	"encoding/json"
	"net/url"

	"github.com/averhold/genaibind/genai"
	"go.uber.org/zap"
)

// serviceTypeKey is the fixed key under which the service catalog lists
// bindings for this service type.
const serviceTypeKey = "genai"

// Sources are the layered credential inputs, strongest first: an explicit
// endpoint+key pair, then the service-catalog blob.
type Sources struct {
	// Explicit configuration. Both Endpoint and APIKey must be set for
	// this source to apply.
	Endpoint  string
	APIKey    string
	ConfigURL string
	Model     string

	// CatalogJSON is the raw environment-supplied service-catalog blob
	// (VCAP_SERVICES shape): service-type keys mapping to ordered binding
	// records.
	CatalogJSON string

	// BindingName selects a catalog binding by exact name instead of
	// taking the first one.
	BindingName string

	// AllowHTTP permits a plain-transport endpoint scheme. Local testing
	// only; encrypted transport is required otherwise.
	AllowHTTP bool
}

// Resolver produces one validated genai.Credentials from layered sources.
type Resolver struct {
	src Sources
	log *zap.Logger
}

// NewResolver creates a resolver over the given sources. A nil logger
// defaults to a no-op logger.
func NewResolver(src Sources, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{src: src, log: log}
}

// Resolve walks the sources in priority order and returns the first hit,
// validated. No source yielding credentials is ErrMissingCredentials.
func (r *Resolver) Resolve() (genai.Credentials, error) {
	lookups := []func() (genai.Credentials, bool, error){
		r.fromExplicit,
		r.fromCatalog,
	}
	for _, lookup := range lookups {
		creds, ok, err := lookup()
		if err != nil {
			return genai.Credentials{}, err
		}
		if !ok {
			continue
		}
		if err := r.validate(creds); err != nil {
			return genai.Credentials{}, err
		}
		return creds, nil
	}
	return genai.Credentials{}, genai.NewError(genai.ErrMissingCredentials,
		"no credentials found: set an explicit endpoint and api key, or supply a service-catalog binding")
}

func (r *Resolver) fromExplicit() (genai.Credentials, bool, error) {
	if r.src.Endpoint == "" || r.src.APIKey == "" {
		return genai.Credentials{}, false, nil
	}
	creds := genai.Credentials{
		EndpointBase: StripTransportSuffix(r.src.Endpoint),
		APIKey:       r.src.APIKey,
		ConfigURL:    r.src.ConfigURL,
		Model:        r.src.Model,
	}
	if creds.Model != "" {
		creds.Capabilities = genai.NormalizeCapabilities(nil)
	}
	r.log.Debug("resolved credentials from explicit configuration",
		zap.String("endpoint_base", creds.EndpointBase))
	return creds, true, nil
}

func (r *Resolver) fromCatalog() (genai.Credentials, bool, error) {
	if r.src.CatalogJSON == "" {
		return genai.Credentials{}, false, nil
	}

	var catalog map[string]json.RawMessage
	if err := json.Unmarshal([]byte(r.src.CatalogJSON), &catalog); err != nil {
		return genai.Credentials{}, false, genai.NewError(genai.ErrCredentialFormat,
			"service-catalog blob is not valid JSON").WithCause(err)
	}
	raw, ok := catalog[serviceTypeKey]
	if !ok {
		return genai.Credentials{}, false, nil
	}

	var bindings []struct {
		Name        string `json:"name"`
		Credentials Blob   `json:"credentials"`
	}
	if err := json.Unmarshal(raw, &bindings); err != nil {
		return genai.Credentials{}, false, genai.NewError(genai.ErrCredentialFormat,
			"service-catalog bindings are not an array of binding records").WithCause(err)
	}
	if len(bindings) == 0 {
		return genai.Credentials{}, false, nil
	}

	if r.src.BindingName != "" {
		for _, b := range bindings {
			if b.Name != r.src.BindingName {
				continue
			}
			creds, format, err := Detect(b.Credentials)
			if err != nil {
				return genai.Credentials{}, false, err
			}
			r.logBinding(b.Name, format)
			return r.applyOverrides(creds), true, nil
		}
		return genai.Credentials{}, false, genai.NewError(genai.ErrBindingNotFound,
			"no service-catalog binding named "+r.src.BindingName).WithField("binding_name")
	}

	// No selector: first well-formed binding by array order wins.
	var firstErr error
	for _, b := range bindings {
		creds, format, err := Detect(b.Credentials)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		r.logBinding(b.Name, format)
		return r.applyOverrides(creds), true, nil
	}
	return genai.Credentials{}, false, firstErr
}

// applyOverrides layers explicit model and config-url overrides on top of
// catalog-sourced credentials.
func (r *Resolver) applyOverrides(creds genai.Credentials) genai.Credentials {
	if r.src.Model != "" {
		creds.Model = r.src.Model
		creds.Capabilities = genai.NormalizeCapabilities(nil)
	}
	if r.src.ConfigURL != "" {
		creds.ConfigURL = r.src.ConfigURL
	}
	return creds
}

func (r *Resolver) logBinding(name string, format Format) {
	r.log.Debug("resolved credentials from service-catalog binding",
		zap.String("binding", name),
		zap.Stringer("format", format))
}

// validate checks the canonical record: the endpoint base must be an
// absolute URL over encrypted transport (plain transport only with the
// opt-out) and the key must be non-empty. Errors name the offending field
// but never its value.
func (r *Resolver) validate(creds genai.Credentials) error {
	u, err := url.Parse(creds.EndpointBase)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return genai.NewError(genai.ErrCredentialValidation,
			"endpoint base is not an absolute URL").WithField("endpoint_base")
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !r.src.AllowHTTP {
			return genai.NewError(genai.ErrCredentialValidation,
				"endpoint base must use https (set the allow_http opt-out for local testing)").
				WithField("endpoint_base")
		}
	default:
		return genai.NewError(genai.ErrCredentialValidation,
			"endpoint base has an unsupported scheme").WithField("endpoint_base")
	}
	if creds.APIKey == "" {
		return genai.NewError(genai.ErrCredentialValidation,
			"api key is empty").WithField("api_key")
	}
	return nil
}

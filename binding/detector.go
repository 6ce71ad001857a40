package binding

import (
	"strings"

	"github.com/averhold/genaibind/genai"
)

// transportSuffix is the OpenAI-wire path segment older single-model
// bindings bake into api_base. Canonical endpoint bases never carry it;
// the request adapter appends it when building URLs.
const transportSuffix = "/openai"

// EndpointBlock is the nested endpoint object of v2 and multi-model
// binding credentials.
type EndpointBlock struct {
	APIBase   string `json:"api_base"`
	APIKey    string `json:"api_key"`
	ConfigURL string `json:"config_url,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Blob is a raw binding credentials record as issued by the service
// catalog. Exactly which fields are populated depends on the format;
// Detect sorts that out.
type Blob struct {
	APIBase           string         `json:"api_base,omitempty"`
	APIKey            string         `json:"api_key,omitempty"`
	ModelName         string         `json:"model_name,omitempty"`
	ModelCapabilities []string       `json:"model_capabilities,omitempty"`
	WireFormat        string         `json:"wire_format,omitempty"`
	Endpoint          *EndpointBlock `json:"endpoint,omitempty"`
}

// Format is the detected shape of a binding credentials record.
type Format int

const (
	FormatUnknown Format = iota

	// FormatSingleModelLegacy: top-level model_name, no endpoint block.
	// api_base carries the transport suffix and needs stripping.
	FormatSingleModelLegacy

	// FormatSingleModelV2: model_name plus an endpoint block. The declared
	// model is always preferred over discovery.
	FormatSingleModelV2

	// FormatMultiModel: endpoint block only, no declared model.
	// Discovery is required.
	FormatMultiModel
)

func (f Format) String() string {
	switch f {
	case FormatSingleModelLegacy:
		return "single-model-legacy"
	case FormatSingleModelV2:
		return "single-model-v2"
	case FormatMultiModel:
		return "multi-model"
	default:
		return "unknown"
	}
}

// StripTransportSuffix removes trailing /openai segments from an endpoint
// base. Absence of the suffix is not an error, and stripping is idempotent:
// repeated suffixes are all removed, so a second pass is a no-op.
func StripTransportSuffix(base string) string {
	for {
		trimmed := strings.TrimRight(base, "/")
		trimmed = strings.TrimSuffix(trimmed, transportSuffix)
		if trimmed == base {
			return base
		}
		base = trimmed
	}
}

// Detect classifies a raw binding record into one of the closed formats and
// extracts canonical credentials from it. The result is not yet validated;
// the resolver owns URL and key validation.
func Detect(blob Blob) (genai.Credentials, Format, error) {
	switch {
	case blob.ModelName != "" && blob.Endpoint == nil:
		if blob.APIBase == "" || blob.APIKey == "" {
			return genai.Credentials{}, FormatUnknown, malformed("single-model binding missing api_base or api_key")
		}
		return genai.Credentials{
			EndpointBase: StripTransportSuffix(blob.APIBase),
			APIKey:       blob.APIKey,
			Model:        blob.ModelName,
			Capabilities: genai.NormalizeCapabilities(blob.ModelCapabilities),
		}, FormatSingleModelLegacy, nil

	case blob.ModelName != "" && blob.Endpoint != nil:
		creds, err := fromEndpointBlock(blob.Endpoint)
		if err != nil {
			return genai.Credentials{}, FormatUnknown, err
		}
		creds.Model = blob.ModelName
		creds.Capabilities = genai.NormalizeCapabilities(blob.ModelCapabilities)
		return creds, FormatSingleModelV2, nil

	case blob.Endpoint != nil:
		creds, err := fromEndpointBlock(blob.Endpoint)
		if err != nil {
			return genai.Credentials{}, FormatUnknown, err
		}
		return creds, FormatMultiModel, nil

	default:
		return genai.Credentials{}, FormatUnknown, malformed("binding matches no known credential format")
	}
}

func fromEndpointBlock(ep *EndpointBlock) (genai.Credentials, error) {
	if ep.APIBase == "" || ep.APIKey == "" {
		return genai.Credentials{}, malformed("endpoint block missing api_base or api_key")
	}
	return genai.Credentials{
		EndpointBase: StripTransportSuffix(ep.APIBase),
		APIKey:       ep.APIKey,
		ConfigURL:    ep.ConfigURL,
	}, nil
}

func malformed(msg string) *genai.Error {
	return genai.NewError(genai.ErrCredentialFormat, msg)
}

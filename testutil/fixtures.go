package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// TestContext returns a context with a test-scoped timeout.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext returns an already-cancelled context.
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// MultiModelBinding returns a multi-model binding credentials object for
// the given endpoint base.
func MultiModelBinding(base, key string) string {
	return fmt.Sprintf(`{
		"endpoint": {
			"api_base": %q,
			"api_key": %q,
			"config_url": %q,
			"name": "all-models"
		}
	}`, base, key, base+"/config/v1/endpoint")
}

// SingleModelV2Binding returns a v2 single-model binding credentials
// object: top-level model_name plus an endpoint block.
func SingleModelV2Binding(base, key, model string) string {
	return fmt.Sprintf(`{
		"api_base": %q,
		"api_key": %q,
		"endpoint": {
			"api_base": %q,
			"api_key": %q,
			"config_url": %q,
			"name": "single"
		},
		"model_capabilities": ["chat", "tools"],
		"model_name": %q,
		"wire_format": "openai"
	}`, base+"/openai", key, base, key, base+"/config/v1/endpoint", model)
}

// LegacySingleModelBinding returns a deprecated single-model binding:
// top-level api_base carrying the /openai suffix, no endpoint block.
func LegacySingleModelBinding(base, key, model string) string {
	return fmt.Sprintf(`{
		"api_base": %q,
		"api_key": %q,
		"model_name": %q,
		"model_capabilities": ["chat"],
		"wire_format": "openai"
	}`, base+"/openai", key, model)
}

// ServiceCatalog wraps binding credential objects into a service-catalog
// blob under the genai key, in the given order. Names are binding-0,
// binding-1, ...
func ServiceCatalog(credentials ...string) string {
	out := `{"genai":[`
	for i, c := range credentials {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"name":"binding-%d","credentials":%s}`, i, c)
	}
	return out + `]}`
}

// ConfigEndpointBody returns a config endpoint payload advertising the
// given model name/capability pairs.
func ConfigEndpointBody(models ...[2]string) string {
	out := `{"name":"all-models","advertisedModels":[`
	for i, m := range models {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"name":%q,"capabilities":[%q]}`, m[0], m[1])
	}
	return out + `]}`
}

// ListingBody returns a generic OpenAI-wire model listing payload.
func ListingBody(ids ...string) string {
	out := `{"object":"list","data":[`
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"id":%q,"object":"model"}`, id)
	}
	return out + `]}`
}

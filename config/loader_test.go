package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Defaults()
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Empty(t, s.Endpoint)
	assert.False(t, s.AllowHTTP)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint: https://proxy.example.com/plan
api_key: file-key
model: llama3:8b
binding_name: prod-binding
allow_http: true
timeout: 10s
`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.example.com/plan", s.Endpoint)
	assert.Equal(t, "file-key", s.APIKey)
	assert.Equal(t, "llama3:8b", s.Model)
	assert.Equal(t, "prod-binding", s.BindingName)
	assert.True(t, s.AllowHTTP)
	assert.Equal(t, 10*time.Second, s.Timeout)
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint: https://file.example.com
api_key: file-key
`), 0o600))

	t.Setenv("GENAI_ENDPOINT", "https://env.example.com")
	t.Setenv("GENAI_API_KEY", "env-key")
	t.Setenv("GENAI_MODEL", "env-model")
	t.Setenv("GENAI_CONFIG_URL", "https://env.example.com/config")
	t.Setenv("GENAI_BINDING_NAME", "env-binding")
	t.Setenv("GENAI_ALLOW_HTTP", "true")
	t.Setenv("GENAI_TIMEOUT", "5s")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", s.Endpoint)
	assert.Equal(t, "env-key", s.APIKey)
	assert.Equal(t, "env-model", s.Model)
	assert.Equal(t, "https://env.example.com/config", s.ConfigURL)
	assert.Equal(t, "env-binding", s.BindingName)
	assert.True(t, s.AllowHTTP)
	assert.Equal(t, 5*time.Second, s.Timeout)
}

func TestLoad_EmptyEnvDoesNotClobberFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: https://file.example.com"), 0o600))

	t.Setenv("GENAI_ENDPOINT", "")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", s.Endpoint)
}

func TestLoad_InvalidEnvValuesIgnored(t *testing.T) {
	t.Setenv("GENAI_ALLOW_HTTP", "definitely")
	t.Setenv("GENAI_TIMEOUT", "-3s")

	s, err := Load("")
	require.NoError(t, err)
	assert.False(t, s.AllowHTTP)
	assert.Equal(t, 30*time.Second, s.Timeout)
}

func TestLoad_ServiceCatalogFromEnv(t *testing.T) {
	const blob = `{"genai":[{"name":"b","credentials":{"endpoint":{"api_base":"https://x","api_key":"k"}}}]}`
	t.Setenv("VCAP_SERVICES", blob)

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, blob, s.CatalogJSON)
}

package search

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geoknoesis/ldgraph/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexYAML = `
- type: https://www.w3.org/ns/activitystreams#Note
  indexed:
    - https://www.w3.org/ns/activitystreams#content
  projected:
    - https://www.w3.org/ns/activitystreams#name
    - https://www.w3.org/ns/activitystreams#content
  context: https://www.w3.org/ns/activitystreams
- type: http://server.test/Foo
  indexed: [http://www.w3.org/2000/01/rdf-schema#label]
  projected: [http://www.w3.org/2000/01/rdf-schema#label]
  context:
    label: http://www.w3.org/2000/01/rdf-schema#label
`

func TestLoadConfigs(t *testing.T) {
	configs, err := LoadConfigs(strings.NewReader(indexYAML))
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, "https://www.w3.org/ns/activitystreams#Note", configs[0].Type)
	assert.Equal(t, []string{"https://www.w3.org/ns/activitystreams#content"}, configs[0].Indexed)
	assert.Len(t, configs[0].Projected, 2)
	assert.Equal(t, "https://www.w3.org/ns/activitystreams", configs[0].Context)

	assert.Equal(t, map[string]any{"label": "http://www.w3.org/2000/01/rdf-schema#label"}, configs[1].Context)
}

func TestLoadConfigsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing type", "- indexed: [a]\n"},
		{"unknown field", "- type: a\n  weight: 3\n"},
		{"not a list", "type: a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigs(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, rdf.ErrConfiguration)
		})
	}
}

func TestLoadConfigsEmpty(t *testing.T) {
	configs, err := LoadConfigs(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(indexYAML), 0o644))

	configs, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Len(t, configs, 2)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, rdf.ErrConfiguration)
}

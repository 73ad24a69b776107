//nolint:funlen // ok for tests
package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrackFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_BuiltinLayout(t *testing.T) {
	got, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultTrackName, got.Definition.Name)
	assert.Equal(t, DefaultTrackWidth, got.Definition.Width)
	assert.Len(t, got.Definition.Points, DefaultResolution)
	assert.Greater(t, got.Definition.TotalLength, 0.0)
	assert.Len(t, got.LeftBoundary, DefaultResolution)
	assert.Len(t, got.RightBoundary, DefaultResolution)
}

func TestLoader_FromFile(t *testing.T) {
	path := writeTrackFile(t, `
name: test oval
width: 10
resolution: 100
waypoints:
  - {x: 0, y: 0}
  - {x: 100, y: 0}
  - {x: 100, y: 50}
  - {x: 0, y: 50}
`)
	got, err := NewLoader(WithFile(path)).Load()
	require.NoError(t, err)
	assert.Equal(t, "test oval", got.Definition.Name)
	assert.Equal(t, 10.0, got.Definition.Width)
	assert.Len(t, got.Definition.Points, 100)
}

func TestLoader_FileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing name",
			content: `
width: 10
waypoints:
  - {x: 0, y: 0}
  - {x: 100, y: 0}
  - {x: 100, y: 50}
`,
		},
		{
			name: "too few waypoints",
			content: `
name: broken
waypoints:
  - {x: 0, y: 0}
  - {x: 100, y: 0}
`,
		},
		{
			name:    "not yaml",
			content: "{{{{",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTrackFile(t, tt.content)
			_, err := NewLoader(WithFile(path)).Load()
			assert.Error(t, err)
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(WithFile("/does/not/exist.yml")).Load()
	assert.Error(t, err)
}

//go:build contract

package contract

import (
	"embed"
	"encoding/json"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
)

// golden holds responses recorded from a running status API.
//
//go:embed testdata
var golden embed.FS

// loadGoldenFile decodes testdata/<name> into T.
func loadGoldenFile[T any](t *testing.T, name string) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(loadGoldenFileRaw(t, name), &out), "golden file %s is not valid JSON for %T", name, out)
	return out
}

// loadGoldenFileRaw returns testdata/<name> unchanged.
func loadGoldenFileRaw(t *testing.T, name string) []byte {
	t.Helper()

	data, err := golden.ReadFile(path.Join("testdata", name))
	require.NoError(t, err, "missing golden file %s", name)
	return data
}

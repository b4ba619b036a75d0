package embedding

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestANNIndex_DegradesGracefullyWithoutExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ann.sqlite")
	idx, err := NewANNIndex(path, 8)
	require.NoError(t, err)
	defer idx.Close()

	// Without the sqlite_vec build tag, vec0 isn't registered and Enabled
	// must be false rather than panicking or erroring at construction.
	if idx.Enabled() {
		err := idx.Add([]FeaturePath{{Path: "a/b", Source: SourceExploit}}, [][]float32{{1, 0, 0, 0, 0, 0, 0, 0}})
		require.NoError(t, err)
		results, err := idx.Search([]float32{1, 0, 0, 0, 0, 0, 0, 0}, 1)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		return
	}

	err = idx.Add(nil, nil)
	require.Error(t, err)
}

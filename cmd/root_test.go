package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{
		{"download", "assets"},
		{"download", "images"},
		{"download", "remove-class"},
		{"serve"},
	} {
		found, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}

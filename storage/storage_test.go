package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromLocation(t *testing.T) {
	publicURL := "https://s3-us-west-1.amazonaws.com/cribtrakr"

	t.Run("strips the public prefix", func(t *testing.T) {
		key, ok := KeyFromLocation(publicURL+"/rentalsBucket/house.png", publicURL)
		require.True(t, ok)
		assert.Equal(t, "rentalsBucket/house.png", key)
	})

	t.Run("trailing slash on the prefix is tolerated", func(t *testing.T) {
		key, ok := KeyFromLocation(publicURL+"/rentalsBucket/house.png", publicURL+"/")
		require.True(t, ok)
		assert.Equal(t, "rentalsBucket/house.png", key)
	})

	t.Run("empty location", func(t *testing.T) {
		_, ok := KeyFromLocation("", publicURL)
		assert.False(t, ok)
	})

	t.Run("foreign location", func(t *testing.T) {
		_, ok := KeyFromLocation("https://elsewhere.example.com/pic.png", publicURL)
		assert.False(t, ok)
	})

	t.Run("prefix with nothing after it", func(t *testing.T) {
		_, ok := KeyFromLocation(publicURL+"/", publicURL)
		assert.False(t, ok)
	})
}

func TestMemStore(t *testing.T) {
	mem := NewMemStore()
	ctx := context.Background()

	location, err := mem.Upload(ctx, KeyPrefix+"a.png", strings.NewReader("bytes"), 5, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "mem://"+KeyPrefix+"a.png", location)
	assert.Equal(t, []byte("bytes"), mem.Objects[KeyPrefix+"a.png"])

	require.NoError(t, mem.Delete(ctx, KeyPrefix+"a.png"))
	assert.NotContains(t, mem.Objects, KeyPrefix+"a.png")

	// deleting a missing key is not an error
	require.NoError(t, mem.Delete(ctx, "nope"))
}

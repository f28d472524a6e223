package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	h, err := HashPassword("gulab-jamun")
	require.NoError(t, err)
	assert.NotEqual(t, "gulab-jamun", h)

	assert.True(t, CheckPassword(h, "gulab-jamun"))
	assert.False(t, CheckPassword(h, "rasgulla"))
	assert.False(t, CheckPassword("not-a-hash", "gulab-jamun"))
}

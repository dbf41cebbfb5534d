package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePoint(t *testing.T) {
	t.Parallel()

	data, err := EncodePoint(37.5665, 126.9780)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	lat, lon, err := DecodePoint(data)
	require.NoError(t, err)
	assert.InDelta(t, 37.5665, lat, 1e-9)
	assert.InDelta(t, 126.9780, lon, 1e-9)
}

func TestDecodePointRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, _, err := DecodePoint([]byte{0x01, 0x02, 0x03})
	assert.Error(t, err)
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "(empty)", MaskKey(""))
	assert.Equal(t, "****", MaskKey("short"))
	assert.Equal(t, "****", MaskKey("fifteen-chars.."))
	assert.Equal(t, "eyJhbGci...WT0k", MaskKey("eyJhbGciOiJIUzI1NiJ9.payload.sigWT0k"))
}

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"search": "qty < 10 & status"})
	require.NoError(t, err)
	assert.Equal(t, `{"search":"qty < 10 & status"}`, string(out))
}

func TestMarshalNoEscape_NoTrailingNewline(t *testing.T) {
	out, err := MarshalNoEscape([]int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", string(out))
}

package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	mime, data, err := ParseDataURL("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "hello", string(data))

	mime, data, err = ParseDataURL("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, "hello", string(data))

	assert.Equal(t, "data:image/png;base64,aGVsbG8=", ToDataURL("image/png", []byte("hello")))
}

func TestParseDataURLErrors(t *testing.T) {
	cases := []string{
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
		"",
	}
	for _, c := range cases {
		_, _, err := ParseDataURL(c)
		assert.ErrorIs(t, err, ErrInvalidDataURL, c)
	}
}

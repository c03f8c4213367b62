package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/certmaker/internal/codec"
)

func TestQRCodeDataURI(t *testing.T) {
	uri, err := QRCodeDataURI("https://example.com/verify/42", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	img, err := codec.DecodeImage(uri)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestQRCodeDataURIEmptyPayload(t *testing.T) {
	_, err := QRCodeDataURI("", 128)
	assert.Error(t, err)
}

package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/certmaker/internal/render"
	"github.com/rook-computer/certmaker/internal/state"
)

func frame() render.Frame {
	return render.BuildFrame(state.NewStore().Snapshot())
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": PNG, "JPEG": JPG, "jpg": JPG, " pdf ": PDF} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("tiff")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "certificate.pdf", PDF.FileName())
	assert.Equal(t, "image/jpeg", JPG.ContentType())
	assert.Equal(t, "application/pdf", PDF.ContentType())
	assert.Equal(t, 3.0, PDF.Scale())
	assert.Equal(t, 4.0, PNG.Scale())
}

func TestExportPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(nil).Export(context.Background(), frame(), PNG, &buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 841*4, 595*4), img.Bounds())
}

func TestExportJPG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(nil).Export(context.Background(), frame(), JPG, &buf))
	img, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 841*4, img.Bounds().Dx())
}

func TestExportPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(nil).Export(context.Background(), frame(), PDF, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExportFailures(t *testing.T) {
	var buf bytes.Buffer
	err := New(nil).Export(context.Background(), frame(), Format("tiff"), &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = New(nil).Export(ctx, frame(), PNG, &buf)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.ErrorIs(t, err, context.Canceled)

	var exportErr *Error
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, "Failed to export PNG. Please try again.", exportErr.Message())
	assert.Zero(t, buf.Len())
}

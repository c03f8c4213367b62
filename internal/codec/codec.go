// Package codec turns uploaded files into data URIs or text and decodes data
// URIs back into images.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Upload limits in bytes.
const (
	MaxImageBytes      = 5 << 20
	MaxBackgroundBytes = 10 << 20
	MaxConfigBytes     = 10 << 20
)

var (
	ErrTooLarge    = errors.New("file too large")
	ErrNotImage    = errors.New("file is not an image")
	ErrBadDataURI  = errors.New("malformed data URI")
	ErrNotUTF8Text = errors.New("file is not UTF-8 text")
)

// CheckSize rejects a declared size above limit before anything is read.
func CheckSize(size, limit int64) error {
	if size > limit {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, limit)
	}
	return nil
}

// TooLargeMessage is the user-facing text for a rejected upload.
func TooLargeMessage(limit int64) string {
	return fmt.Sprintf("File size too large. Please choose a file smaller than %dMB.", limit>>20)
}

// readLimited reads r, failing with ErrTooLarge if it yields more than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// ReadImageDataURI reads an image file and encodes it as a base64 data URI
// whose MIME type comes from the file's magic bytes.
func ReadImageDataURI(r io.Reader, limit int64) (string, error) {
	data, err := readLimited(r, limit)
	if err != nil {
		return "", err
	}
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return "", ErrNotImage
	}
	return EncodeDataURI(kind.MIME.Value, data), nil
}

// ReadText reads r as UTF-8 text.
func ReadText(r io.Reader, limit int64) (string, error) {
	data, err := readLimited(r, limit)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrNotUTF8Text
	}
	return string(data), nil
}

func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI returns the MIME type and payload of a base64 or
// percent-free plain data URI.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrBadDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURI
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return mime, []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	return mime, data, nil
}

// DecodeImage decodes the image carried by a data URI. PNG, JPEG, GIF, BMP
// and WebP are supported.
func DecodeImage(uri string) (image.Image, error) {
	_, data, err := DecodeDataURI(uri)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

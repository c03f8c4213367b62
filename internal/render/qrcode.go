package render

import (
	"github.com/skip2/go-qrcode"

	"github.com/rook-computer/certmaker/internal/codec"
)

// QRCodeSize is the pixel size of generated QR code images. The element is
// scaled to its box when drawn.
const QRCodeSize = 256

// QRCodeDataURI encodes payload as a PNG QR code data URI, the form image
// elements store. A sizePx of zero or less means QRCodeSize.
func QRCodeDataURI(payload string, sizePx int) (string, error) {
	if sizePx <= 0 {
		sizePx = QRCodeSize
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, sizePx)
	if err != nil {
		return "", err
	}
	return codec.EncodeDataURI("image/png", png), nil
}

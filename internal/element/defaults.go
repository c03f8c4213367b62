package element

// Canvas geometry shared by every package that lays out elements.
const (
	CanvasWidth  = 841
	CanvasHeight = 595
	CanvasMargin = 40
)

// DefaultData returns empty form fields with today's date.
func DefaultData() CertificateData {
	return CertificateData{Date: Today()}
}

// DefaultWatermark is the disabled watermark every fresh layout starts with.
func DefaultWatermark() Watermark {
	return Watermark{
		Text:     "CERTIFICATE",
		Enabled:  false,
		Opacity:  0.1,
		FontSize: 72,
		Color:    "#000000",
		Rotation: -45,
	}
}

// DefaultElements returns the six bound text elements of a fresh layout:
// a serif title and recipient line, a sans body, and the signature block.
func DefaultElements() []TextElement {
	return []TextElement{
		{
			ID: string(TextTitle), Type: TextTitle,
			X: 200, Y: 80, Width: 441, Height: 60,
			FontSize: 36, FontFamily: "Playfair Display", Color: "#1e40af",
			FontWeight: "bold", FontStyle: "normal", TextAlign: AlignCenter,
			Opacity: Float(1), LetterSpacing: Float(1), LineHeight: Float(1.2),
		},
		{
			ID: string(TextRecipientName), Type: TextRecipientName,
			X: 200, Y: 200, Width: 441, Height: 50,
			FontSize: 28, FontFamily: "Crimson Text", Color: "#0f172a",
			FontWeight: "normal", FontStyle: "italic", TextAlign: AlignCenter,
			Opacity: Float(1), LetterSpacing: Float(0.5), LineHeight: Float(1.3),
		},
		{
			ID: string(TextDescription), Type: TextDescription,
			X: 100, Y: 280, Width: 641, Height: 120,
			FontSize: 16, FontFamily: "Inter", Color: "#374151",
			FontWeight: "normal", FontStyle: "normal", TextAlign: AlignCenter,
			Opacity: Float(1), LetterSpacing: Float(0), LineHeight: Float(1.5),
		},
		{
			ID: string(TextSignerName), Type: TextSignerName,
			X: 550, Y: 450, Width: 200, Height: 40,
			FontSize: 18, FontFamily: "Inter", Color: "#0f172a",
			FontWeight: "bold", FontStyle: "normal", TextAlign: AlignCenter,
			Opacity: Float(1), LetterSpacing: Float(0), LineHeight: Float(1.2),
		},
		{
			ID: string(TextSignerTitle), Type: TextSignerTitle,
			X: 550, Y: 480, Width: 200, Height: 30,
			FontSize: 14, FontFamily: "Inter", Color: "#6b7280",
			FontWeight: "normal", FontStyle: "normal", TextAlign: AlignCenter,
			Opacity: Float(1), LetterSpacing: Float(0), LineHeight: Float(1.2),
		},
		{
			ID: string(TextDate), Type: TextDate,
			X: 100, Y: 460, Width: 150, Height: 30,
			FontSize: 14, FontFamily: "Inter", Color: "#6b7280",
			FontWeight: "normal", FontStyle: "normal", TextAlign: AlignLeft,
			Opacity: Float(1), LetterSpacing: Float(0), LineHeight: Float(1.2),
		},
	}
}

// NewCustomText builds the element created by double-clicking empty canvas
// at (x, y). The box is offset so the click lands near its upper left.
func NewCustomText(id string, x, y float64) TextElement {
	return TextElement{
		ID:         id,
		Text:       "Double-click to edit",
		Type:       TextCustom,
		X:          max(0, x-50),
		Y:          max(0, y-15),
		Width:      200,
		Height:     40,
		FontSize:   16,
		FontFamily: "Inter",
		Color:      "#000000",
		FontWeight: "normal",
		FontStyle:  "normal",
		TextAlign:  AlignLeft,
	}
}

// Preset geometry for uploaded images.
var (
	LogoPreset      = ImageElement{Type: ImageLogo, X: 50, Y: 50, Width: 100, Height: 100}
	SignaturePreset = ImageElement{Type: ImageSignature, X: 550, Y: 420, Width: 150, Height: 75}
	QRCodePreset    = ImageElement{Type: ImageQRCode, X: 691, Y: 445, Width: 100, Height: 100}
)

// FromPreset stamps id and src onto a copy of preset with full opacity and no rotation.
func FromPreset(preset ImageElement, id, src string) ImageElement {
	out := preset
	out.ID = id
	out.Src = src
	out.Opacity = Float(1)
	out.Rotation = Float(0)
	return out
}

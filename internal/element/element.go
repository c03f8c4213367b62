// Package element defines the shapes placed on the certificate canvas.
//
// Nothing here enforces geometry rules; the store and the pointer layer do that.
package element

// TextKind is the role of a text element.
type TextKind string

const (
	TextRecipientName TextKind = "recipientName"
	TextTitle         TextKind = "title"
	TextDescription   TextKind = "description"
	TextSignerName    TextKind = "signerName"
	TextSignerTitle   TextKind = "signerTitle"
	TextDate          TextKind = "date"
	TextCustom        TextKind = "custom"
)

// BoundKinds lists the text kinds whose content comes from CertificateData.
var BoundKinds = []TextKind{TextTitle, TextRecipientName, TextDescription, TextSignerName, TextSignerTitle, TextDate}

func (k TextKind) Valid() bool {
	return k == TextCustom || k.Bound()
}

// Bound reports whether the display text is derived from CertificateData.
func (k TextKind) Bound() bool {
	for _, b := range BoundKinds {
		if b == k {
			return true
		}
	}
	return false
}

// ImageKind is the role of an image element.
type ImageKind string

const (
	ImageLogo      ImageKind = "logo"
	ImageSignature ImageKind = "signature"
	ImageWatermark ImageKind = "watermark"
	ImageQRCode    ImageKind = "qrcode"
)

func (k ImageKind) Valid() bool {
	switch k {
	case ImageLogo, ImageSignature, ImageWatermark, ImageQRCode:
		return true
	}
	return false
}

// TextAlign values accepted by the renderer.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// CertificateData holds the form fields bound to the six named text kinds.
type CertificateData struct {
	RecipientName string `json:"recipientName"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	SignerName    string `json:"signerName"`
	SignerTitle   string `json:"signerTitle"`
	Date          string `json:"date"`
}

// Field returns the data value bound to kind. Custom and unknown kinds yield "".
func (d CertificateData) Field(kind TextKind) string {
	switch kind {
	case TextRecipientName:
		return d.RecipientName
	case TextTitle:
		return d.Title
	case TextDescription:
		return d.Description
	case TextSignerName:
		return d.SignerName
	case TextSignerTitle:
		return d.SignerTitle
	case TextDate:
		return d.Date
	}
	return ""
}

// TextElement is a positioned block of text. Coordinates are canvas pixels,
// rotation is in degrees.
type TextElement struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Type          TextKind `json:"type"`
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
	Width         float64  `json:"width"`
	Height        float64  `json:"height"`
	FontSize      float64  `json:"fontSize"`
	FontFamily    string   `json:"fontFamily"`
	Color         string   `json:"color"`
	FontWeight    string   `json:"fontWeight"`
	FontStyle     string   `json:"fontStyle"`
	TextAlign     string   `json:"textAlign"`
	Rotation      *float64 `json:"rotation,omitempty"`
	Opacity       *float64 `json:"opacity,omitempty"`
	TextShadow    *string  `json:"textShadow,omitempty"`
	LetterSpacing *float64 `json:"letterSpacing,omitempty"`
	LineHeight    *float64 `json:"lineHeight,omitempty"`
}

// Source returns where the element's display text comes from.
func (e TextElement) Source() TextSource {
	if e.Type.Bound() {
		return Bound{Field: e.Type}
	}
	return Literal{Text: e.Text}
}

// Clone returns a copy that shares no pointers with e.
func (e TextElement) Clone() TextElement {
	out := e
	out.Rotation = cloneFloat(e.Rotation)
	out.Opacity = cloneFloat(e.Opacity)
	out.LetterSpacing = cloneFloat(e.LetterSpacing)
	out.LineHeight = cloneFloat(e.LineHeight)
	if e.TextShadow != nil {
		s := *e.TextShadow
		out.TextShadow = &s
	}
	return out
}

// ImageElement is a positioned image. Src is always a data URI.
type ImageElement struct {
	ID       string    `json:"id"`
	Type     ImageKind `json:"type"`
	Src      string    `json:"src"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Opacity  *float64  `json:"opacity,omitempty"`
	Rotation *float64  `json:"rotation,omitempty"`
}

func (e ImageElement) Clone() ImageElement {
	out := e
	out.Opacity = cloneFloat(e.Opacity)
	out.Rotation = cloneFloat(e.Rotation)
	return out
}

// Watermark is the single full-bleed text overlay.
type Watermark struct {
	Text     string  `json:"text"`
	Enabled  bool    `json:"enabled"`
	Opacity  float64 `json:"opacity"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
	Rotation float64 `json:"rotation"`
}

// Float returns a pointer to v, for the optional style fields.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// ValueOr dereferences p, or returns fallback when p is nil.
func ValueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CloneTexts copies a text element slice deeply. Nil stays nil.
func CloneTexts(in []TextElement) []TextElement {
	if in == nil {
		return nil
	}
	out := make([]TextElement, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

// CloneImages copies an image element slice deeply. Nil stays nil.
func CloneImages(in []ImageElement) []ImageElement {
	if in == nil {
		return nil
	}
	out := make([]ImageElement, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

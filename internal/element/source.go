package element

import "time"

// TextSource is either Bound to a CertificateData field or a Literal string.
// The interface is sealed; only this package provides implementations.
type TextSource interface {
	Resolve(data CertificateData) string
	isTextSource()
}

// Bound takes its text from a CertificateData field.
type Bound struct {
	Field TextKind
}

// Literal carries its own text.
type Literal struct {
	Text string
}

func (Bound) isTextSource()   {}
func (Literal) isTextSource() {}

// Resolve returns the data field, or a placeholder naming the field when empty.
func (b Bound) Resolve(data CertificateData) string {
	if v := data.Field(b.Field); v != "" {
		return v
	}
	return Placeholder(b.Field)
}

func (l Literal) Resolve(CertificateData) string { return l.Text }

// Placeholder is shown for a bound element whose data field is empty.
func Placeholder(kind TextKind) string {
	switch kind {
	case TextRecipientName:
		return "Recipient Name"
	case TextTitle:
		return "Certificate Title"
	case TextDescription:
		return "Certificate Description"
	case TextSignerName:
		return "Signer Name"
	case TextSignerTitle:
		return "Signer Title"
	case TextDate:
		return Today()
	}
	return ""
}

// Today formats the current local date the way the date field stores it.
func Today() string {
	return time.Now().Format(time.DateOnly)
}

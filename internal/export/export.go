// Package export encodes the certificate canvas as PNG, JPEG or a one page
// PDF. Exports never include grid, safe margin or selection overlays.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/rook-computer/certmaker/internal/render"
)

type Format string

const (
	PNG Format = "png"
	JPG Format = "jpg"
	PDF Format = "pdf"
)

// Raster scales and encoder settings per format.
const (
	PNGScale     = 4
	JPGScale     = 4
	JPGQuality   = 95
	PDFScale     = 3
	pageWidthMM  = 297.0
	pageHeightMM = 210.0
)

var (
	ErrExportFailed  = errors.New("export failed")
	ErrUnknownFormat = errors.New("unknown export format")
)

// ParseFormat accepts png, jpg, jpeg and pdf in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPG, nil
	case "pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) Scale() float64 {
	switch f {
	case PDF:
		return PDFScale
	case JPG:
		return JPGScale
	}
	return PNGScale
}

func (f Format) ContentType() string {
	switch f {
	case JPG:
		return "image/jpeg"
	case PDF:
		return "application/pdf"
	}
	return "image/png"
}

// FileName is the download name for an export, e.g. certificate.pdf.
func (f Format) FileName() string {
	return "certificate." + string(f)
}

// Error reports a failed export. It matches ErrExportFailed with errors.Is and
// unwraps to the rasterizer or encoder error.
type Error struct {
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrExportFailed }

// Message is the text shown to the user.
func (e *Error) Message() string {
	return fmt.Sprintf("Failed to export %s. Please try again.", strings.ToUpper(string(e.Format)))
}

type Logger interface {
	Infof(component, format string, args ...any)
	Errorf(component, format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...any)  {}
func (noopLogger) Errorf(string, string, ...any) {}

type Exporter struct {
	Raster *render.Rasterizer
	Logger Logger
}

func New(raster *render.Rasterizer) *Exporter {
	if raster == nil {
		raster = render.NewRasterizer()
	}
	return &Exporter{Raster: raster, Logger: noopLogger{}}
}

func (x *Exporter) logger() Logger {
	if x.Logger == nil {
		return noopLogger{}
	}
	return x.Logger
}

// Export renders frame for format and writes the encoded file to w. Nothing
// is written when rasterizing or encoding fails.
func (x *Exporter) Export(ctx context.Context, frame render.Frame, format Format, w io.Writer) error {
	if _, err := ParseFormat(string(format)); err != nil {
		return &Error{Format: format, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &Error{Format: format, Err: err}
	}
	img, err := x.Raster.Render(frame, render.ExportOptions(format.Scale()))
	if err != nil {
		x.logger().Errorf("export", "render %s: %v", format, err)
		return &Error{Format: format, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &Error{Format: format, Err: err}
	}

	var buf bytes.Buffer
	switch format {
	case PNG:
		err = png.Encode(&buf, img)
	case JPG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPGQuality})
	case PDF:
		err = writePDF(&buf, img)
	}
	if err != nil {
		x.logger().Errorf("export", "encode %s: %v", format, err)
		return &Error{Format: format, Err: err}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return &Error{Format: format, Err: err}
	}
	x.logger().Infof("export", "%s written, %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

// writePDF places img over a whole A4 landscape page.
func writePDF(w io.Writer, img image.Image) error {
	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		return err
	}
	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("certmaker", true)
	doc.AddPage()
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("certificate", opts, &raw)
	doc.ImageOptions("certificate", 0, 0, pageWidthMM, pageHeightMM, false, opts, 0, "")
	if err := doc.Error(); err != nil {
		return err
	}
	return doc.Output(w)
}

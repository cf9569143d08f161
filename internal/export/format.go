package export

import (
	"errors"
	"fmt"
	"strings"
)

type Format string

const (
	FormatJPEG Format = "jpg"
	FormatPDF  Format = "pdf"
	// FormatAI is the PDF under an Illustrator extension; Illustrator opens PDFs natively.
	FormatAI  Format = "ai"
	FormatSVG Format = "svg"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats lists every format in menu order.
func Formats() []Format {
	return []Format{FormatJPEG, FormatPDF, FormatSVG, FormatAI}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJPEG, FormatPDF, FormatAI, FormatSVG:
		return f, nil
	case "jpeg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) Filename() string {
	switch f {
	case FormatJPEG:
		return "ELiF-School-Illustration.jpg"
	case FormatSVG:
		return "ELiF-School-Pricing.svg"
	default:
		return "ELiF-School-Price-List." + string(f)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatSVG:
		return "image/svg+xml"
	case FormatAI:
		return "application/postscript"
	default:
		return "application/pdf"
	}
}

// UserMessage is what the visitor sees when an export fails.
func (f Format) UserMessage() string {
	return fmt.Sprintf("Could not generate %s. Please try printing the page instead.", strings.ToUpper(string(f)))
}

// Document is one finished download.
type Document struct {
	Format      Format
	Filename    string
	ContentType string
	Body        []byte
}

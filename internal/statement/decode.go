package statement

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// DefaultMaxUploadBytes caps statement size.
const DefaultMaxUploadBytes = 10 << 20

// ErrUnsupportedFormat is returned for files that are neither delimited
// text, plain text nor PDF.
var ErrUnsupportedFormat = errors.New("unsupported statement format")

// Kind identifies how a statement was decoded.
type Kind string

const (
	KindDelimited Kind = "delimited"
	KindText      Kind = "text"
	KindPDF       Kind = "pdf"
)

// Decoded is the normalizer's input: Rows for delimited files, Text for
// plain text and extracted PDFs.
type Decoded struct {
	Kind Kind
	Rows []map[string]string
	Text string
}

var pdfMagic = []byte("%PDF-")

// DetectKind picks a decoder from the file extension, falling back to the
// PDF magic number when the name carries no known extension.
func DetectKind(filename string, data []byte) (Kind, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv":
		return KindDelimited, nil
	case ".txt", ".text":
		return KindText, nil
	case ".pdf":
		return KindPDF, nil
	case "":
		if len(data) >= len(pdfMagic) && string(data[:len(pdfMagic)]) == string(pdfMagic) {
			return KindPDF, nil
		}
	}
	return "", fmt.Errorf("DetectKind: %q: %w", filename, ErrUnsupportedFormat)
}

// Decode turns statement bytes into rows or text. PDFs go through the
// extractor, which may be nil when no PDF support is configured.
func Decode(ctx context.Context, filename string, data []byte, extractor TextExtractor) (*Decoded, error) {
	kind, err := DetectKind(filename, data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindDelimited:
		rows, err := SplitDelimited(data)
		if err != nil {
			return nil, fmt.Errorf("Decode: %w", err)
		}
		return &Decoded{Kind: kind, Rows: rows}, nil

	case KindText:
		return &Decoded{Kind: kind, Text: strings.TrimPrefix(string(data), string(utf8BOM))}, nil

	default:
		if extractor == nil {
			return nil, fmt.Errorf("Decode: %q: no PDF extractor configured: %w", filename, ErrUnsupportedFormat)
		}
		text, err := extractor.ExtractText(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("Decode: extracting text: %w", err)
		}
		return &Decoded{Kind: kind, Text: text}, nil
	}
}

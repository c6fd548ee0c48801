// Package extract converts uploaded document bytes into plain text.
package extract

import (
	"strings"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/gabriel-vasile/mimetype"
)

// Supported MIME types at the ingestion boundary.
const (
	MimePDF   = "application/pdf"
	MimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC   = "application/msword"
	MimePlain = "text/plain"
)

// Extractor extracts plain text from raw document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of the document with the given declared
// MIME type. When the declared type is empty the content is sniffed.
// Unsupported formats fail with an UNSUPPORTED_FORMAT domain error.
func (e *Extractor) Extract(content []byte, declaredMime string) (string, error) {
	mime := normalizeMime(declaredMime)
	if mime == "" {
		mime = sniffMime(content)
	}

	switch mime {
	case MimePDF:
		return extractPDF(content)
	case MimeDOCX, MimeDOC:
		return extractDOCX(content)
	case MimePlain:
		return extractPlain(content)
	default:
		return "", domain.NewDomainError(domain.ErrCodeUnsupportedFormat,
			"unsupported document format: "+mime)
	}
}

// Supported reports whether the declared MIME type can be extracted.
func Supported(declaredMime string) bool {
	switch normalizeMime(declaredMime) {
	case MimePDF, MimeDOCX, MimeDOC, MimePlain:
		return true
	default:
		return false
	}
}

// normalizeMime strips parameters (e.g. "; charset=utf-8") and lowercases.
func normalizeMime(mime string) string {
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

func sniffMime(content []byte) string {
	detected := mimetype.Detect(content)
	for m := detected; m != nil; m = m.Parent() {
		switch normalizeMime(m.String()) {
		case MimePDF:
			return MimePDF
		case MimeDOCX:
			return MimeDOCX
		case MimeDOC:
			return MimeDOC
		case MimePlain:
			return MimePlain
		}
	}
	return normalizeMime(detected.String())
}

package documents

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF  = "application/pdf"
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedTypes = map[string]struct{}{
	mimePDF:  {},
	mimePNG:  {},
	mimeJPEG: {},
	mimeDOCX: {},
}

// inspection is what an upload reveals about itself before it is stored.
type inspection struct {
	MimeType  string
	PageCount int
}

// inspect sniffs the payload type and, for PDFs, counts pages.
func inspect(data []byte, fileName string) (inspection, error) {
	if len(data) == 0 {
		return inspection{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	mimeType := normalizeMimeType(http.DetectContentType(data), fileName, data)
	if _, ok := allowedTypes[mimeType]; !ok {
		return inspection{}, fmt.Errorf("%w: unsupported file type %s", ErrInvalidInput, mimeType)
	}

	out := inspection{MimeType: mimeType}
	if mimeType == mimePDF {
		pages, err := countPDFPages(data)
		if err != nil {
			return inspection{}, fmt.Errorf("%w: unreadable pdf: %v", ErrInvalidInput, err)
		}
		out.PageCount = pages
	}
	return out, nil
}

func countPDFPages(data []byte) (pages int, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	n := reader.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return n, nil
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "application/zip" {
		return clean
	}
	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}
	if strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return mimeDOCX
	}
	return clean
}

func mapOOXMLFromZip(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return mimeDOCX
		}
	}
	return ""
}

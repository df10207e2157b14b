// Package extract inspects uploaded and generated files: it settles the real
// mime type and counts PDF pages, including PDFs bundled in a zip.
package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeZIP  = "application/zip"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrNotPaged is returned for content that has no page count.
var ErrNotPaged = errors.New("content has no pages")

// Info is what inspection learned about a payload.
type Info struct {
	MimeType  string
	PageCount int
}

// Inspect normalizes mimeType against the payload and, for PDFs and zips of
// PDFs, counts pages. Page counting failures leave PageCount at zero.
func Inspect(data []byte, mimeType, fileName string) Info {
	info := Info{MimeType: NormalizeMimeType(mimeType, fileName, data)}
	if n, err := PageCount(data, info.MimeType); err == nil {
		info.PageCount = n
	}
	return info
}

// PageCount returns the number of pages in a PDF, or the summed pages of
// every PDF inside a zip archive.
func PageCount(data []byte, mimeType string) (int, error) {
	switch mimeType {
	case MimePDF:
		return pdfPages(data)
	case MimeZIP:
		return zipPDFPages(data)
	default:
		return 0, fmt.Errorf("%w: %s", ErrNotPaged, mimeType)
	}
}

func pdfPages(data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, errors.New("empty pdf data")
	}
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("read pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return r.NumPage(), nil
}

func zipPDFPages(data []byte) (int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read zip: %w", err)
	}
	total := 0
	found := false
	for _, f := range zr.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".pdf") {
			continue
		}
		raw, err := readZipEntry(f)
		if err != nil {
			return 0, err
		}
		n, err := pdfPages(raw)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", f.Name, err)
		}
		total += n
		found = true
	}
	if !found {
		return 0, fmt.Errorf("%w: zip has no pdf entries", ErrNotPaged)
	}
	return total, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// NormalizeMimeType cleans a declared content type. Empty or generic types
// are sniffed from the payload, and zips that are really Office documents
// are mapped to their OOXML type.
func NormalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == "" || clean == "application/octet-stream" {
		clean = strings.Split(http.DetectContentType(data), ";")[0]
	}
	if clean != MimeZIP {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return MimeDOCX
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "word/document.xml":
			return MimeDOCX
		case "xl/workbook.xml":
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		}
	}
	return ""
}

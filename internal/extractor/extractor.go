package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrDecode reports bytes that cannot be decoded as text at all.
var ErrDecode = errors.New("extractor: content is not valid text")

// Kind names the extraction path a file took.
type Kind string

const (
	KindText        Kind = "text"
	KindPDF         Kind = "pdf"
	KindWord        Kind = "word"
	KindSpreadsheet Kind = "spreadsheet"
	KindUnsupported Kind = "unsupported"
)

type Result struct {
	Text string
	Kind Kind
	// Degraded is set when Text is a labelled placeholder rather than
	// content taken from the file.
	Degraded bool
}

var textExtensions = map[string]bool{
	".txt":  true,
	".csv":  true,
	".json": true,
	".md":   true,
}

var textMIMETypes = map[string]bool{
	"text/plain":       true,
	"text/csv":         true,
	"text/markdown":    true,
	"application/json": true,
}

// Extract reads r fully and returns its text. Only a read failure or
// undecodable text content is returned as an error; every other problem
// yields a labelled block with Degraded set.
func Extract(ctx context.Context, name, mime string, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mime = normalizeMIME(mime)
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case mime == "application/pdf" || ext == ".pdf":
		return extractPDF(name, data), nil
	case isSpreadsheet(mime, ext):
		return &Result{
			Text:     spreadsheetBlock(name, len(data)),
			Kind:     KindSpreadsheet,
			Degraded: true,
		}, nil
	case isWord(mime, ext):
		return extractWord(name, data), nil
	case textMIMETypes[mime] || textExtensions[ext]:
		return extractText(name, data)
	default:
		return &Result{
			Text:     unsupportedBlock(name, mime, len(data)),
			Kind:     KindUnsupported,
			Degraded: true,
		}, nil
	}
}

func normalizeMIME(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime
}

// isSpreadsheet must be checked before isWord: spreadsheet MIME types
// such as application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// also contain "document".
func isSpreadsheet(mime, ext string) bool {
	return strings.Contains(mime, "spreadsheet") || strings.Contains(mime, "excel") ||
		ext == ".xlsx" || ext == ".xls"
}

func isWord(mime, ext string) bool {
	return strings.Contains(mime, "word") || ext == ".docx" || ext == ".doc"
}

func sizeMB(size int) string {
	return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
}

func header(name, docType string, size int) string {
	return fmt.Sprintf("Document: %s\nSize: %s\nType: %s\n", name, sizeMB(size), docType)
}

func spreadsheetBlock(name string, size int) string {
	return header(name, "Excel Spreadsheet", size) + `
Status: Spreadsheet content is not parsed
Note: export the spreadsheet to CSV format and upload the CSV for full content analysis.
`
}

func unsupportedBlock(name, mime string, size int) string {
	if mime == "" {
		mime = "Unknown"
	}
	return header(name, mime, size) + `
Status: Unsupported file format
Supported formats for full analysis:
- PDF (with selectable text)
- Word documents (.docx)
- Plain text (.txt, .md)
- CSV data (.csv)
- JSON data (.json)
`
}

var extensionMIMETypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".json": "application/json",
}

// DetectContentType determines the content type from the filename
// extension, falling back to the reported type.
func DetectContentType(filename, reported string) string {
	if mime, ok := extensionMIMETypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mime
	}
	if reported == "" {
		return "application/octet-stream"
	}
	return reported
}

package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func extractPDF(name string, data []byte) *Result {
	text, err := readPDFText(data)
	if err != nil {
		return &Result{Text: pdfDegradedBlock(name, len(data), err), Kind: KindPDF, Degraded: true}
	}
	return &Result{Text: text, Kind: KindPDF}
}

// readPDFText pulls the plain text of every page. The parser panics on
// some malformed inputs, so panics are turned into errors.
func readPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF parser failed: %v", r)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}

	extracted := cleanText(textBuilder.String())
	if extracted == "" {
		return "", fmt.Errorf("no text could be extracted from PDF")
	}
	return extracted, nil
}

func pdfDegradedBlock(name string, size int, cause error) string {
	return header(name, "PDF Document (degraded extraction)", size) + fmt.Sprintf(`
Status: Text could not be extracted from this PDF
Reason: %v
Note: the analysis of this document is based on its metadata only and has low confidence.
Scanned PDFs need OCR before upload; password-protected PDFs must be unlocked.
`, cause)
}

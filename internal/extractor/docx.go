package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    wordBody `xml:"body"`
}

type wordBody struct {
	Paragraphs []wordParagraph `xml:"p"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text string `xml:"t"`
}

func extractWord(name string, data []byte) *Result {
	text, err := readDOCXText(data)
	if err != nil {
		return &Result{Text: wordErrorBlock(name, len(data), err), Kind: KindWord, Degraded: true}
	}
	return &Result{Text: text, Kind: KindWord}
}

func readDOCXText(data []byte) (string, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX as ZIP: %w", err)
	}

	var documentFile *zip.File
	for _, file := range zipReader.File {
		if file.Name == "word/document.xml" {
			documentFile = file
			break
		}
	}
	if documentFile == nil {
		return "", fmt.Errorf("document.xml not found in DOCX")
	}

	xmlFile, err := documentFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer xmlFile.Close()

	xmlData, err := io.ReadAll(xmlFile)
	if err != nil {
		return "", fmt.Errorf("failed to read document.xml: %w", err)
	}

	var doc wordDocument
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var textBuilder strings.Builder
	for _, para := range doc.Body.Paragraphs {
		for _, run := range para.Runs {
			textBuilder.WriteString(run.Text)
		}
		textBuilder.WriteString("\n")
	}

	extracted := cleanText(textBuilder.String())
	if extracted == "" {
		return "", fmt.Errorf("no text could be extracted from DOCX")
	}
	return extracted, nil
}

func wordErrorBlock(name string, size int, cause error) string {
	return header(name, "Word Document", size) + fmt.Sprintf(`
Status: Word document text extraction failed
Reason: %v
Possible causes: legacy .doc format, password protection, or a corrupted file.
Saving the document as .docx, PDF or TXT usually resolves this.
`, cause)
}

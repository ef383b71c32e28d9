package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/ai"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
)

// MaxPromptText bounds how much document text is sent to the model.
const MaxPromptText = 8000

// ErrAnalysisParse means the model reply held no usable JSON object.
var ErrAnalysisParse = errors.New("analyzer: could not parse model response")

// Placeholders for fields the model left out.
const (
	PlaceholderType       = "Unclassified Document"
	PlaceholderDepartment = "Unassigned"
	PlaceholderHeadline   = "Summary not provided by analysis"
	PlaceholderKeyPoint   = "No key points were identified by analysis"
	PlaceholderDetailed   = "Detailed summary not provided by analysis"
	PlaceholderConfidence = 50
)

type ModelStrategy struct {
	generator ai.TextGenerator
}

func NewModelStrategy(generator ai.TextGenerator) *ModelStrategy {
	return &ModelStrategy{generator: generator}
}

func (s *ModelStrategy) Name() string { return "model" }

func (s *ModelStrategy) Analyze(ctx context.Context, text, filename string) (*models.AnalysisRecord, error) {
	reply, err := s.generator.Generate(ctx, buildAnalysisPrompt(text, filename))
	if err != nil {
		return nil, err
	}

	raw, err := parseModelReply(reply)
	if err != nil {
		return nil, err
	}
	return normalize(raw, text, filename), nil
}

func buildAnalysisPrompt(text, filename string) string {
	return fmt.Sprintf(`Analyze the following document and respond ONLY with a valid JSON object (no markdown, no code blocks).

Document Name: %s
Content:
%s

Use exactly this structure:
{
  "title": "A concise title for the document",
  "type": "Document type (e.g. Safety Document, Financial Report, Policy Document, Technical Document)",
  "department": "Relevant department (Engineering, Finance, Operations, Safety, Administration)",
  "summary": {
    "headline": "One sentence summary",
    "keyPoints": ["3-5 key points"],
    "detailed": "Detailed paragraph summary"
  },
  "priority": "high, medium or low based on urgency and importance",
  "entities": ["Important names, organisations, places, dates and amounts mentioned"],
  "confidence": 0,
  "language": "Primary language of the document"
}

Set confidence to a number between 0 and 100. Focus on metro rail transportation, safety, financial and operational relevance.`,
		filename, utils.Truncate(text, MaxPromptText))
}

type rawSummary struct {
	Headline  string   `json:"headline"`
	KeyPoints []string `json:"keyPoints"`
	Detailed  string   `json:"detailed"`
}

type rawAnalysis struct {
	Title      string      `json:"title"`
	Type       string      `json:"type"`
	Department string      `json:"department"`
	Summary    rawSummary  `json:"summary"`
	Priority   string      `json:"priority"`
	Entities   []string    `json:"entities"`
	Confidence flexibleInt `json:"confidence"`
	Language   string      `json:"language"`
}

// flexibleInt accepts a JSON number or a numeric string.
type flexibleInt struct {
	Value int
	Set   bool
}

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("confidence %q is not a number", s)
	}
	f.Value = int(n)
	f.Set = true
	return nil
}

func parseModelReply(reply string) (*rawAnalysis, error) {
	object, ok := FirstJSONObject(reply)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrAnalysisParse)
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(object), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisParse, err)
	}
	return &raw, nil
}

// FirstJSONObject returns the first balanced {...} span in s, skipping
// braces inside string literals.
func FirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false

		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}

			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					i = len(s)
				}
			}
		}

		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func normalize(raw *rawAnalysis, text, filename string) *models.AnalysisRecord {
	record := &models.AnalysisRecord{
		Title:      orDefault(raw.Title, titleFromFilename(filename)),
		Type:       orDefault(raw.Type, PlaceholderType),
		Department: orDefault(raw.Department, PlaceholderDepartment),
		Summary: models.Summary{
			Headline:  orDefault(raw.Summary.Headline, PlaceholderHeadline),
			KeyPoints: nonBlank(raw.Summary.KeyPoints),
			Detailed:  orDefault(raw.Summary.Detailed, PlaceholderDetailed),
		},
		Entities:   nonBlank(raw.Entities),
		Confidence: PlaceholderConfidence,
		Language:   orDefault(raw.Language, DetectLanguage(text)),
		Method:     models.MethodModel,
	}

	if len(record.Summary.KeyPoints) == 0 {
		record.Summary.KeyPoints = []string{PlaceholderKeyPoint}
	}

	if p, ok := models.ParsePriority(raw.Priority); ok {
		record.Priority = p
	} else {
		record.Priority = models.PriorityMedium
	}

	if raw.Confidence.Set {
		record.Confidence = clamp(raw.Confidence.Value, 0, 100)
	}
	return record
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

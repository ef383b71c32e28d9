package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
)

const (
	HeuristicConfidence = 75
	MaxEntities         = 8
	maxKeyPoints        = 5
)

type classification struct {
	keywords   []string
	docType    string
	department string
	priority   models.Priority
}

// Checked in order; the first rule with a matching keyword wins.
var classifications = []classification{
	{[]string{"safety", "emergency", "accident", "urgent"}, "Safety Document", "Safety", models.PriorityHigh},
	{[]string{"revenue", "budget", "financial", "cost"}, "Financial Report", "Finance", models.PriorityMedium},
	{[]string{"maintenance", "repair", "technical", "engineering"}, "Technical Document", "Engineering", models.PriorityMedium},
	{[]string{"policy", "procedure", "guideline"}, "Policy Document", "Administration", models.PriorityMedium},
	{[]string{"train", "metro", "station", "passenger"}, "Operations Document", "Operations", models.PriorityMedium},
}

var defaultClassification = classification{docType: "Document", department: "General", priority: models.PriorityMedium}

var keyPointRules = []struct {
	keywords []string
	point    string
}{
	{[]string{"inspection", "check"}, "Inspection procedures outlined"},
	{[]string{"deadline", "due"}, "Time-sensitive actions required"},
	{[]string{"compliance", "regulation"}, "Regulatory compliance requirements"},
	{[]string{"budget", "cost"}, "Financial implications identified"},
	{[]string{"safety", "risk"}, "Safety considerations highlighted"},
}

var fallbackKeyPoints = []string{
	"Document content processed by keyword analysis",
	"Key information extracted for review",
	"Available for further analysis and search",
}

var knownTerms = []struct {
	keyword string
	entity  string
}{
	{"aluva", "Aluva Station"},
	{"kochi", "Kochi Metro"},
	{"kmrl", "KMRL"},
	{"alstom", "Alstom"},
}

var (
	datePattern     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{4}\b`)
	currencyPattern = regexp.MustCompile(`[₹$€£]\s?\d[\d,]*(?:\.\d+)?`)
	namePattern     = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
)

// HeuristicStrategy classifies by keywords. It never fails.
type HeuristicStrategy struct{}

func (HeuristicStrategy) Name() string { return "heuristic" }

func (HeuristicStrategy) Analyze(_ context.Context, text, filename string) (*models.AnalysisRecord, error) {
	return Classify(text, filename), nil
}

// Classify builds a complete analysis record from keyword matches over the
// text and filename.
func Classify(text, filename string) *models.AnalysisRecord {
	haystack := strings.ToLower(text + " " + filename)

	class := defaultClassification
	for _, c := range classifications {
		if containsAny(haystack, c.keywords) {
			class = c
			break
		}
	}

	title := titleFromFilename(filename)
	return &models.AnalysisRecord{
		Title:      title,
		Type:       class.docType,
		Department: class.department,
		Summary: models.Summary{
			Headline:  fmt.Sprintf("%s processed: %s", class.docType, title),
			KeyPoints: keyPoints(haystack),
			Detailed: fmt.Sprintf("This %s was classified by keyword analysis for the %s department and marked %s priority. "+
				"The classification is heuristic and was not produced by a language model.",
				strings.ToLower(class.docType), class.department, class.priority),
		},
		Priority:   class.priority,
		Entities:   ExtractEntities(text),
		Confidence: HeuristicConfidence,
		Language:   DetectLanguage(text),
		Method:     models.MethodHeuristic,
	}
}

func keyPoints(haystack string) []string {
	var points []string
	for _, rule := range keyPointRules {
		if containsAny(haystack, rule.keywords) {
			points = append(points, rule.point)
		}
	}
	if len(points) == 0 {
		return append([]string(nil), fallbackKeyPoints...)
	}
	if len(points) > maxKeyPoints {
		points = points[:maxKeyPoints]
	}
	return points
}

// ExtractEntities collects dates, currency amounts, capitalised two-word
// names and known domain terms, deduplicated and capped at MaxEntities.
func ExtractEntities(text string) []string {
	var all []string
	all = append(all, FindDates(text)...)
	all = append(all, FindAmounts(text)...)
	all = append(all, FindNames(text)...)

	lower := strings.ToLower(text)
	for _, term := range knownTerms {
		if strings.Contains(lower, term.keyword) {
			all = append(all, term.entity)
		}
	}

	entities := unique(all)
	if len(entities) > MaxEntities {
		entities = entities[:MaxEntities]
	}
	return entities
}

func FindDates(text string) []string {
	return unique(datePattern.FindAllString(text, -1))
}

func FindAmounts(text string) []string {
	return unique(currencyPattern.FindAllString(text, -1))
}

// FindNames returns capitalised two-word sequences such as "Priya Sharma".
func FindNames(text string) []string {
	return unique(namePattern.FindAllString(text, -1))
}

func unique(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// DetectLanguage names the dominant script of text. Latin text and text
// without letters report English.
func DetectLanguage(text string) string {
	var letters, malayalam, devanagari, tamil int
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Mc, r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Malayalam, r):
			malayalam++
		case unicode.Is(unicode.Devanagari, r):
			devanagari++
		case unicode.Is(unicode.Tamil, r):
			tamil++
		}
	}
	if letters == 0 {
		return "English"
	}

	switch {
	case malayalam*2 > letters:
		return "Malayalam"
	case devanagari*2 > letters:
		return "Hindi"
	case tamil*2 > letters:
		return "Tamil"
	case malayalam > 0:
		return "English, Malayalam"
	}
	return "English"
}

func titleFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)

	words := strings.Fields(base)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	if len(words) == 0 || filename == "" {
		return "Untitled Document"
	}
	return strings.Join(words, " ")
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

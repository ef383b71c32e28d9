package models

import (
	"strings"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority accepts any casing and surrounding whitespace.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	}
	return "", false
}

// AnalysisMethod records which path produced an analysis.
type AnalysisMethod string

const (
	MethodModel     AnalysisMethod = "model"
	MethodHeuristic AnalysisMethod = "heuristic"
)

type Summary struct {
	Headline  string   `json:"headline"`
	KeyPoints []string `json:"keyPoints"`
	Detailed  string   `json:"detailed"`
}

// AnalysisRecord is the structured output of document analysis.
type AnalysisRecord struct {
	Title      string         `json:"title"`
	Type       string         `json:"type"`
	Department string         `json:"department"`
	Summary    Summary        `json:"summary"`
	Priority   Priority       `json:"priority"`
	Entities   []string       `json:"entities"`
	Confidence int            `json:"confidence"`
	Language   string         `json:"language"`
	Method     AnalysisMethod `json:"method"`
}

type FileData struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	LastModified int64  `json:"lastModified"`
}

type DocumentAnalysis struct {
	Entities   []string       `json:"entities"`
	Confidence int            `json:"confidence"`
	Language   string         `json:"language"`
	Method     AnalysisMethod `json:"method"`
}

type StoredDocument struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Type            string           `json:"type"`
	Department      string           `json:"department"`
	Date            string           `json:"date"`
	Summary         Summary          `json:"summary"`
	Priority        Priority         `json:"priority"`
	Source          string           `json:"source"`
	OriginalContent string           `json:"originalContent"`
	FileData        FileData         `json:"fileData"`
	Analysis        DocumentAnalysis `json:"analysis"`
}

// Matches reports whether query occurs, ignoring case, in the title, type,
// department or any summary field. An empty query matches everything.
func (d *StoredDocument) Matches(query string) bool {
	q := strings.ToLower(query)
	if q == "" {
		return true
	}

	fields := []string{d.Title, d.Type, d.Department, d.Summary.Headline, d.Summary.Detailed}
	fields = append(fields, d.Summary.KeyPoints...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// DocumentPatch carries a partial update. Nil fields are left untouched.
// OriginalContent and FileData are deliberately absent.
type DocumentPatch struct {
	Title      *string   `json:"title,omitempty"`
	Type       *string   `json:"type,omitempty"`
	Department *string   `json:"department,omitempty"`
	Summary    *Summary  `json:"summary,omitempty"`
	Priority   *Priority `json:"priority,omitempty"`
	Entities   *[]string `json:"entities,omitempty"`
	Confidence *int      `json:"confidence,omitempty"`
	Language   *string   `json:"language,omitempty"`
}

func (p DocumentPatch) IsEmpty() bool {
	return p.Title == nil && p.Type == nil && p.Department == nil && p.Summary == nil &&
		p.Priority == nil && p.Entities == nil && p.Confidence == nil && p.Language == nil
}

// Apply merges the patch into d.
func (d *StoredDocument) Apply(p DocumentPatch) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Department != nil {
		d.Department = *p.Department
	}
	if p.Summary != nil {
		d.Summary = *p.Summary
	}
	if p.Priority != nil {
		d.Priority = *p.Priority
	}
	if p.Entities != nil {
		d.Analysis.Entities = *p.Entities
	}
	if p.Confidence != nil {
		d.Analysis.Confidence = *p.Confidence
	}
	if p.Language != nil {
		d.Analysis.Language = *p.Language
	}
}

type UploadRequest struct {
	File         []byte
	Filename     string
	ContentType  string
	LastModified int64
}

type SearchResponse struct {
	Documents []StoredDocument `json:"documents"`
	Answer    string           `json:"answer"`
}

type AskRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"documentId,omitempty"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

// DocumentField names the columns ListByField may filter on.
type DocumentField string

const (
	FieldDepartment DocumentField = "department"
	FieldPriority   DocumentField = "priority"
	FieldType       DocumentField = "type"
)

type StorageStats struct {
	Count     int   `json:"count"`
	TotalSize int64 `json:"totalSize"`
}

// SummaryKind selects the audience of a generated summary.
type SummaryKind string

const (
	SummaryExecutive   SummaryKind = "executive"
	SummaryTechnical   SummaryKind = "technical"
	SummaryActionItems SummaryKind = "action-items"
)

func ParseSummaryKind(s string) (SummaryKind, bool) {
	switch SummaryKind(s) {
	case SummaryExecutive, SummaryTechnical, SummaryActionItems:
		return SummaryKind(s), true
	}
	return "", false
}

type EntityGroups struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	Dates         []string `json:"dates"`
	Amounts       []string `json:"amounts"`
	Equipment     []string `json:"equipment"`
}

type DocumentInsights struct {
	ExecutiveSummary string           `json:"executiveSummary"`
	TechnicalSummary string           `json:"technicalSummary"`
	ActionItems      string           `json:"actionItems"`
	Entities         EntityGroups     `json:"entities"`
	SimilarDocuments []StoredDocument `json:"similarDocuments"`
}

package knowledge

import (
	"strings"
	"sync"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
)

type Metadata struct {
	Title      string          `json:"title"`
	Type       string          `json:"type"`
	Department string          `json:"department"`
	Priority   models.Priority `json:"priority"`
	Date       string          `json:"date"`
	Source     string          `json:"source"`
}

type Entry struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`

	lowerContent string
	lowerTitle   string
	lowerType    string
}

// Index is an in-memory keyword index over stored documents. Readers see
// either the previous or the rebuilt entry set, never a mix.
type Index struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewIndex() *Index {
	return &Index{}
}

// Rebuild replaces the whole index with entries derived from docs.
func (i *Index) Rebuild(docs []models.StoredDocument) {
	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, Entry{
			ID:      doc.ID,
			Content: doc.OriginalContent,
			Metadata: Metadata{
				Title:      doc.Title,
				Type:       doc.Type,
				Department: doc.Department,
				Priority:   doc.Priority,
				Date:       doc.Date,
				Source:     doc.Source,
			},
			lowerContent: strings.ToLower(doc.OriginalContent),
			lowerTitle:   strings.ToLower(doc.Title),
			lowerType:    strings.ToLower(doc.Type),
		})
	}

	i.mu.Lock()
	i.entries = entries
	i.mu.Unlock()
}

// RetrieveTopK returns up to k entries whose content, title or type
// contains query, ignoring case, in index order.
func (i *Index) RetrieveTopK(query string, k int) []Entry {
	i.mu.RLock()
	entries := i.entries
	i.mu.RUnlock()

	if k <= 0 || len(entries) == 0 {
		return []Entry{}
	}

	q := strings.ToLower(strings.TrimSpace(query))
	matched := make([]Entry, 0, k)
	for _, e := range entries {
		if strings.Contains(e.lowerContent, q) || strings.Contains(e.lowerTitle, q) || strings.Contains(e.lowerType, q) {
			matched = append(matched, e)
			if len(matched) == k {
				break
			}
		}
	}
	return matched
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

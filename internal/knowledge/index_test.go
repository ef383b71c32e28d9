package knowledge

import (
	"fmt"
	"sync"
	"testing"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(n int) []models.StoredDocument {
	out := make([]models.StoredDocument, n)
	for i := range out {
		out[i] = models.StoredDocument{
			ID:              fmt.Sprintf("doc-%d", i),
			Title:           fmt.Sprintf("Circular %d", i),
			Type:            "Safety Document",
			OriginalContent: fmt.Sprintf("Platform barrier inspection number %d", i),
		}
	}
	return out
}

func TestRetrieveTopK_EmptyIndex(t *testing.T) {
	idx := NewIndex()
	result := idx.RetrieveTopK("anything", 3)
	assert.NotNil(t, result)
	assert.Empty(t, result)
	assert.Equal(t, 0, idx.Len())
}

func TestRetrieveTopK_OrderAndLimit(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild(docs(5))

	result := idx.RetrieveTopK("BARRIER", 3)
	require.Len(t, result, 3)
	for i, e := range result {
		assert.Equal(t, fmt.Sprintf("doc-%d", i), e.ID)
	}

	result = idx.RetrieveTopK("number 4", 3)
	require.Len(t, result, 1)
	assert.Equal(t, "doc-4", result[0].ID)
	assert.Equal(t, "Circular 4", result[0].Metadata.Title)
}

func TestRetrieveTopK_MatchesTitleAndType(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild(docs(2))

	assert.Len(t, idx.RetrieveTopK("circular 1", 3), 1)
	assert.Len(t, idx.RetrieveTopK("safety document", 3), 2)
	assert.Empty(t, idx.RetrieveTopK("revenue", 3))
}

func TestRebuild_ReplacesEntries(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild(docs(5))
	idx.Rebuild(docs(2))
	assert.Equal(t, 2, idx.Len())

	idx.Rebuild(nil)
	assert.Equal(t, 0, idx.Len())
}

func TestRebuild_ConcurrentReadersSeeWholeIndex(t *testing.T) {
	idx := NewIndex()
	small, large := docs(2), docs(50)
	idx.Rebuild(small)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				n := len(idx.RetrieveTopK("inspection", 100))
				if n != len(small) && n != len(large) {
					t.Errorf("observed partial index of %d entries", n)
					return
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			idx.Rebuild(large)
		} else {
			idx.Rebuild(small)
		}
	}
	close(stop)
	wg.Wait()
}

package qa

import (
	"context"
	"strings"
	"testing"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/ai"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/config"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/knowledge"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func newService(gen ai.TextGenerator, docs ...models.StoredDocument) *Service {
	idx := knowledge.NewIndex()
	idx.Rebuild(docs)
	return NewService(gen, idx, config.Default().Knowledge, utils.NewNopLogger())
}

func doc(id, title, content string) models.StoredDocument {
	return models.StoredDocument{ID: id, Title: title, Type: "Safety Document", OriginalContent: content}
}

func TestAsk_NoKnowledgeBaseSkipsModel(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be used"}
	s := newService(gen)

	assert.Equal(t, NoKnowledgeBaseMessage, s.Ask(context.Background(), "anything?", ""))
	assert.Empty(t, gen.prompts)
}

func TestAsk_IndexContextIsBounded(t *testing.T) {
	gen := &fakeGenerator{reply: "  The barrier is at Aluva.  "}
	long := strings.Repeat("barrier ", 500)
	s := newService(gen,
		doc("1", "First", long),
		doc("2", "Second", long),
		doc("3", "Third", long),
		doc("4", "Fourth", long),
	)

	answer := s.Ask(context.Background(), "barrier", "")
	assert.Equal(t, "The barrier is at Aluva.", answer)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Document: First")
	assert.Contains(t, prompt, "Document: Third")
	assert.NotContains(t, prompt, "Document: Fourth")
	assert.Contains(t, prompt, "not present")
	assert.Less(t, len(prompt), 3*1000+2000)
}

func TestAsk_NoMatchSkipsModel(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	s := newService(gen, doc("1", "Budget", "revenue figures"))

	assert.Equal(t, NoMatchMessage, s.Ask(context.Background(), "escalator", "ignored content"))
	assert.Empty(t, gen.prompts)
}

func TestAsk_NoMatchIsDistinctFromEmptyKnowledgeBase(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	s := newService(gen, doc("1", "Budget", "revenue figures"))

	answer := s.Ask(context.Background(), "escalator", "")
	assert.Equal(t, NoMatchMessage, answer)
	assert.NotEqual(t, NoKnowledgeBaseMessage, answer)
	assert.Contains(t, answer, "match your question")

	empty := newService(gen)
	assert.Equal(t, NoKnowledgeBaseMessage, empty.Ask(context.Background(), "escalator", ""))
	assert.Empty(t, gen.prompts)
}

func TestAsk_SingleDocumentWhenIndexEmpty(t *testing.T) {
	gen := &fakeGenerator{reply: "Due on Friday."}
	s := newService(gen)

	content := strings.Repeat("a", 10000)
	answer := s.Ask(context.Background(), "When is it due?", content)
	assert.Equal(t, "Due on Friday.", answer)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], strings.Repeat("a", 6000))
	assert.NotContains(t, gen.prompts[0], strings.Repeat("a", 6001))
}

func TestAskDocument_IgnoresIndex(t *testing.T) {
	gen := &fakeGenerator{reply: "From the document."}
	s := newService(gen, doc("1", "Indexed", "indexed content"))

	answer := s.AskDocument(context.Background(), "question", "single document body")
	assert.Equal(t, "From the document.", answer)
	assert.Contains(t, gen.prompts[0], "single document body")
	assert.NotContains(t, gen.prompts[0], "indexed content")
}

func TestAsk_DegradedOnFailure(t *testing.T) {
	cases := map[error]string{
		ai.ErrTimeout:            "timed out",
		ai.ErrEmptyResponse:      "empty response",
		ai.ErrServiceUnavailable: "unavailable",
	}
	for err, want := range cases {
		s := newService(&fakeGenerator{err: err})
		answer := s.AskDocument(context.Background(), "q", "content")
		assert.NotEmpty(t, answer)
		assert.Contains(t, answer, want)
	}

	s := newService(&fakeGenerator{reply: "   "})
	assert.Contains(t, s.AskDocument(context.Background(), "q", "content"), "empty response")
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{reply: "1. Replace brakes by Friday"}
	s := newService(gen)

	out := s.Summarize(context.Background(), "body", models.SummaryActionItems)
	assert.Equal(t, "1. Replace brakes by Friday", out)
	assert.Contains(t, gen.prompts[0], "action items")

	failing := newService(&fakeGenerator{err: ai.ErrTimeout})
	assert.Contains(t, failing.Summarize(context.Background(), "body", models.SummaryTechnical), "Failed to generate technical summary")
}

func TestExtractEntities_ModelReply(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"people\": [\"Priya Sharma\"], \"equipment\": [\"Brake unit\"]}\n```"}
	s := newService(gen)

	groups := s.ExtractEntities(context.Background(), "body")
	assert.Equal(t, []string{"Priya Sharma"}, groups.People)
	assert.Equal(t, []string{"Brake unit"}, groups.Equipment)
	assert.NotNil(t, groups.Locations)
}

func TestExtractEntities_TrailingBracesIgnored(t *testing.T) {
	gen := &fakeGenerator{reply: `Here you go: {"people": ["Anil Kumar"], "locations": ["Aluva Station"]} (format {json})`}
	s := newService(gen)

	groups := s.ExtractEntities(context.Background(), "body")
	assert.Equal(t, []string{"Anil Kumar"}, groups.People)
	assert.Equal(t, []string{"Aluva Station"}, groups.Locations)
	assert.Equal(t, []string{}, groups.Organizations)
}

func TestExtractEntities_Fallback(t *testing.T) {
	s := newService(&fakeGenerator{err: ai.ErrServiceUnavailable})

	groups := s.ExtractEntities(context.Background(),
		"Safety Officer Priya Sharma met KMRL and Alstom at Aluva on 2025-02-01 to approve ₹50,000.")
	assert.Contains(t, groups.People, "Priya Sharma")
	assert.Equal(t, []string{"KMRL", "Alstom"}, groups.Organizations)
	assert.Equal(t, []string{"Aluva Station"}, groups.Locations)
	assert.Equal(t, []string{"2025-02-01"}, groups.Dates)
	assert.Equal(t, []string{"₹50,000"}, groups.Amounts)
	assert.NotNil(t, groups.Equipment)
}

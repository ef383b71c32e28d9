package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/ai"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/analyzer"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/config"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/knowledge"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
)

const (
	NoKnowledgeBaseMessage = "I need document content or a knowledge base to answer questions. " +
		"Please upload a document or select one first."
	NoMatchMessage = "No documents in the knowledge base match your question. " +
		"Try different keywords or ask about a specific document."
)

// maxSummaryText bounds the document text sent for summaries and entity
// extraction.
const maxSummaryText = 8000

// Service answers questions against the knowledge index or a single
// document. It never returns an error: AI failures become a displayable
// message.
type Service struct {
	generator ai.TextGenerator
	index     *knowledge.Index
	cfg       config.KnowledgeConfig
	logger    *utils.Logger
}

func NewService(generator ai.TextGenerator, index *knowledge.Index, cfg config.KnowledgeConfig, logger *utils.Logger) *Service {
	return &Service{
		generator: generator,
		index:     index,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ask answers from the knowledge index when it has entries, otherwise from
// content.
func (s *Service) Ask(ctx context.Context, question, content string) string {
	if s.index.Len() > 0 {
		entries := s.index.RetrieveTopK(question, s.cfg.TopK)
		if len(entries) == 0 {
			return NoMatchMessage
		}
		return s.answer(ctx, question, s.indexContext(entries))
	}
	return s.AskDocument(ctx, question, content)
}

// AskDocument answers from content alone, ignoring the index.
func (s *Service) AskDocument(ctx context.Context, question, content string) string {
	if strings.TrimSpace(content) == "" {
		return NoKnowledgeBaseMessage
	}
	return s.answer(ctx, question, utils.Truncate(content, s.cfg.DocumentLimit))
}

func (s *Service) indexContext(entries []knowledge.Entry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, fmt.Sprintf("Document: %s\nContent: %s",
			e.Metadata.Title, utils.Truncate(e.Content, s.cfg.ChunkLimit)))
	}
	return strings.Join(blocks, "\n\n")
}

func (s *Service) answer(ctx context.Context, question, contextBlock string) string {
	prompt := fmt.Sprintf(`You are an assistant helping staff understand metro rail documents.

Document Content:
%s

User Question: %s

Instructions:
1. Answer based ONLY on the provided document content.
2. If the information is not in the document content, clearly state that it is not present.
3. Refer to the relevant parts of the documents where possible.
4. Keep the answer concise.

Answer:`, contextBlock, question)

	reply, err := s.generator.Generate(ctx, prompt)
	if err == nil {
		reply = strings.TrimSpace(reply)
	}
	if err != nil || reply == "" {
		if err == nil {
			err = ai.ErrEmptyResponse
		}
		s.logger.Warn("Question answering degraded", "error", err)
		return DegradedAnswer(err)
	}
	return reply
}

// DegradedAnswer is the message returned in place of an answer when the
// model call failed.
func DegradedAnswer(err error) string {
	return fmt.Sprintf("I could not answer your question because %s. Please try again later.", ai.Describe(err))
}

var summaryTasks = map[models.SummaryKind]string{
	models.SummaryExecutive: "Create an executive summary of this document for senior management. " +
		"Focus on key decisions, financial impact, strategic implications and required actions. " +
		"Keep it concise (2-3 paragraphs) and business-focused.",
	models.SummaryTechnical: "Create a technical summary of this document for engineering and operations teams. " +
		"Focus on technical specifications, operational procedures, safety requirements and implementation details.",
	models.SummaryActionItems: "Extract and list all action items, deadlines and required follow-ups from this document. " +
		"Format them as a numbered list with responsible parties and deadlines where mentioned.",
}

// Summarize produces a summary for the given audience. On failure the
// returned text says so.
func (s *Service) Summarize(ctx context.Context, content string, kind models.SummaryKind) string {
	task, ok := summaryTasks[kind]
	if !ok {
		task = summaryTasks[models.SummaryExecutive]
		kind = models.SummaryExecutive
	}

	prompt := fmt.Sprintf("You are analyzing a metro rail document.\n\nDocument Content:\n%s\n\nTask: %s\n\nSummary:",
		utils.Truncate(content, maxSummaryText), task)

	reply, err := s.generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(reply) != "" {
		return strings.TrimSpace(reply)
	}
	if err == nil {
		err = ai.ErrEmptyResponse
	}
	s.logger.Warn("Summary generation degraded", "kind", kind, "error", err)
	return fmt.Sprintf("Failed to generate %s summary: %s.", kind, ai.Describe(err))
}

var organizations = []struct{ keyword, name string }{
	{"kmrl", "KMRL"},
	{"kochi metro", "Kochi Metro"},
	{"alstom", "Alstom"},
}

var locations = []struct{ keyword, name string }{
	{"aluva", "Aluva Station"},
	{"edapally", "Edapally Station"},
	{"kochi", "Kochi"},
}

// ExtractEntities groups the entities of content by category, asking the
// model first and falling back to pattern matching.
func (s *Service) ExtractEntities(ctx context.Context, content string) models.EntityGroups {
	prompt := fmt.Sprintf(`Extract entities from this document and categorize them.

Content:
%s

Respond with ONLY a JSON object of this shape:
{
  "people": ["Names of people mentioned"],
  "organizations": ["Companies, departments, external organizations"],
  "locations": ["Stations, cities, addresses, facilities"],
  "dates": ["All dates mentioned in any format"],
  "amounts": ["Financial amounts, quantities, measurements"],
  "equipment": ["Technical equipment, systems, infrastructure"]
}`, utils.Truncate(content, s.cfg.DocumentLimit))

	reply, err := s.generator.Generate(ctx, prompt)
	if err == nil {
		var groups models.EntityGroups
		if object, ok := analyzer.FirstJSONObject(reply); ok {
			if err = json.Unmarshal([]byte(object), &groups); err == nil {
				return withEmptyGroups(groups)
			}
		} else {
			err = fmt.Errorf("%w: no JSON object in entity reply", analyzer.ErrAnalysisParse)
		}
	}

	s.logger.Warn("Entity extraction degraded", "error", err)
	return FallbackEntities(content)
}

// FallbackEntities extracts categorised entities with regular expressions
// and known terms.
func FallbackEntities(content string) models.EntityGroups {
	lower := strings.ToLower(content)
	groups := models.EntityGroups{
		People:  analyzer.FindNames(content),
		Dates:   analyzer.FindDates(content),
		Amounts: analyzer.FindAmounts(content),
	}
	for _, o := range organizations {
		if strings.Contains(lower, o.keyword) {
			groups.Organizations = append(groups.Organizations, o.name)
		}
	}
	for _, l := range locations {
		if strings.Contains(lower, l.keyword) {
			groups.Locations = append(groups.Locations, l.name)
		}
	}
	return withEmptyGroups(groups)
}

func withEmptyGroups(g models.EntityGroups) models.EntityGroups {
	for _, list := range []*[]string{&g.People, &g.Organizations, &g.Locations, &g.Dates, &g.Amounts, &g.Equipment} {
		if *list == nil {
			*list = []string{}
		}
	}
	return g
}

package analyzer

import (
	"context"

	"github.com/BerylCAtieno/knowledge-lens-api/internal/ai"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/models"
	"github.com/BerylCAtieno/knowledge-lens-api/internal/utils"
)

// Analyzer turns extracted text into an analysis record. Analyze never
// fails: when every model-backed strategy errors, the keyword heuristic
// answers.
type Analyzer interface {
	Analyze(ctx context.Context, text, filename string) *models.AnalysisRecord
}

// Strategy is one way of producing an analysis.
type Strategy interface {
	Name() string
	Analyze(ctx context.Context, text, filename string) (*models.AnalysisRecord, error)
}

type chainAnalyzer struct {
	strategies []Strategy
	logger     *utils.Logger
}

// New returns an analyzer that asks the model first and falls back to the
// keyword heuristic.
func New(generator ai.TextGenerator, logger *utils.Logger) Analyzer {
	return NewChain(logger, NewModelStrategy(generator))
}

// NewChain tries strategies in order. The heuristic always runs last.
func NewChain(logger *utils.Logger, strategies ...Strategy) Analyzer {
	return &chainAnalyzer{
		strategies: append(strategies, HeuristicStrategy{}),
		logger:     logger,
	}
}

func (a *chainAnalyzer) Analyze(ctx context.Context, text, filename string) *models.AnalysisRecord {
	for _, strategy := range a.strategies {
		record, err := strategy.Analyze(ctx, text, filename)
		if err == nil && record != nil {
			return record
		}
		a.logger.Warn("Analysis strategy failed, falling back",
			"strategy", strategy.Name(),
			"filename", filename,
			"error", err,
		)
	}
	return Classify(text, filename)
}

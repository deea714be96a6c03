// Package agent is the pipeline front door: it links the question to a
// schema subset, fans out to the generation strategies, and picks the final
// answer from the merged candidate list.
package agent

import (
	"context"

	"go.uber.org/zap"

	"sqlqa/internal/llm"
	"sqlqa/internal/prompt"
	"sqlqa/internal/schema"
	"sqlqa/internal/strategy"
	"sqlqa/internal/util/jsonutil"
)

// User-facing failure strings. Raw errors are logged, never surfaced.
const (
	ErrNoTables      = "No tables found"
	ErrLinkingFailed = "Linking response is None"
	ErrGenFailed     = "SQL generation failed"
	ErrIncorrectSQL  = "Query is incorrect, please try again."
)

// Result is the payload returned per question.
type Result struct {
	IsSuccess       bool
	SQL             string
	ExecutionResult string
	Candidates      []strategy.Candidate
	Error           string
}

// Agent wires schema linking to the strategy orchestrator.
type Agent struct {
	Store      *schema.Store
	Linker     llm.LLMClient
	Orch       *strategy.Orchestrator
	SearchMode schema.Mode
	Dialect    string
	Log        *zap.Logger
}

type linkingResult struct {
	Tables []string `json:"tables"`
}

// Run answers one question end to end. It never returns an error; failures
// come back as an unsuccessful Result with a user-facing message.
func (a *Agent) Run(ctx context.Context, question string) Result {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}

	tables, err := a.linkTables(ctx, question)
	if err != nil {
		log.Warn("schema linking failed", zap.Error(err))
		return Result{Error: ErrLinkingFailed}
	}
	if len(tables) == 0 {
		log.Warn("schema linking found no tables", zap.String("question", question))
		return Result{Error: ErrNoTables}
	}
	log.Info("schema linked", zap.Strings("tables", tables))

	subset := a.Store.SearchTables(tables, a.SearchMode, true)
	schemaJSON := schema.Render(subset)

	candidates := a.Orch.Generate(ctx, question, schemaJSON)
	for _, c := range candidates {
		log.Debug("candidate", zap.String("summary", strategy.Describe(c)))
	}
	return pick(candidates)
}

// linkTables asks the model which tables the question touches, against the
// full unfiltered schema.
func (a *Agent) linkTables(ctx context.Context, question string) ([]string, error) {
	full := schema.Render(a.Store.All())
	p := prompt.System(a.Dialect) + prompt.TableLinking(question, full)
	raw, err := a.Linker.GenerateJSON(llm.WithPhase(ctx, "table_linking"), p, nil)
	if err != nil {
		return nil, err
	}
	var lr linkingResult
	if err := jsonutil.Decode(raw, &lr); err != nil {
		return nil, err
	}
	return lr.Tables, nil
}

// pick prefers a successful merge entry, then the first successful strategy
// candidate, and falls back to a failure result. Success requires the
// candidate's SQL to have passed its last check; a branch whose SQL never
// validated or executed reports ErrIncorrectSQL, not an empty result.
func pick(candidates []strategy.Candidate) Result {
	for _, c := range candidates {
		if c.Strategy == strategy.MergeStrategy && c.IsSuccess && c.IsSQLCorrect {
			return Result{IsSuccess: true, SQL: c.SQL, ExecutionResult: c.ExecutionResult, Candidates: candidates}
		}
	}
	for _, c := range candidates {
		if c.IsSuccess && c.IsSQLCorrect {
			return Result{IsSuccess: true, SQL: c.SQL, ExecutionResult: c.ExecutionResult, Candidates: candidates}
		}
	}
	for _, c := range candidates {
		if c.SQL != "" {
			// Something was produced but nothing validated or executed.
			return Result{Candidates: candidates, Error: ErrIncorrectSQL}
		}
	}
	return Result{Candidates: candidates, Error: ErrGenFailed}
}

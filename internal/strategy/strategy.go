// Package strategy fans a question out to every configured generation
// strategy concurrently, then reconciles the produced candidates into one
// final statement through a merge call.
package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sqlqa/internal/executor"
	"sqlqa/internal/generation"
	"sqlqa/internal/llm"
	"sqlqa/internal/prompt"
	"sqlqa/internal/util/jsonutil"
)

// MergeStrategy tags the candidate appended by the merge step.
const MergeStrategy = "merge"

// Candidate is one strategy's terminal outcome, plus the merge entry.
// IsSuccess records that the branch had at least one usable step;
// IsSQLCorrect records that the final SQL passed its last check, which
// for a terminal state means it executed.
type Candidate struct {
	Strategy        string
	Thoughts        []generation.LogStep
	SQL             string
	ExecutionResult string
	IsSuccess       bool
	IsSQLCorrect    bool
}

// Orchestrator owns the configured generators and the merge model. The
// generator list order fixes the candidate list order.
type Orchestrator struct {
	Generators []*generation.Generator
	Merge      llm.LLMClient
	Exec       executor.Executor
	Dialect    string
	Log        *zap.Logger
}

// Generate runs every generator against the same question and schema,
// collects one candidate per strategy, and appends the merge outcome. The
// returned slice always has len(Generators) entries before the optional
// merge entry; a crashed or failed branch yields a placeholder candidate.
func (o *Orchestrator) Generate(ctx context.Context, question, schemaJSON string) []Candidate {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}

	results := make([]Candidate, len(o.Generators))
	var eg errgroup.Group
	for i, gen := range o.Generators {
		eg.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Warn("strategy branch panicked",
						zap.String("strategy", gen.Strategy),
						zap.Any("panic", r))
					results[i] = Candidate{Strategy: gen.Strategy, IsSuccess: false}
				}
			}()
			st := gen.Run(ctx, question, schemaJSON)
			results[i] = Candidate{
				Strategy:        st.Strategy,
				Thoughts:        st.Logs,
				SQL:             st.SQL,
				ExecutionResult: st.ExecutionResult,
				IsSuccess:       st.IsSuccess(),
				IsSQLCorrect:    st.IsSQLCorrect,
			}
			return nil
		})
	}
	_ = eg.Wait()

	return o.merge(ctx, question, results, log)
}

// merge hands every produced SQL string to the merge model, validated or
// not, runs the reconciled statement, and appends its outcome. A merge
// failure leaves the strategy candidates as the answer.
func (o *Orchestrator) merge(ctx context.Context, question string, results []Candidate, log *zap.Logger) []Candidate {
	var sqls []string
	for _, c := range results {
		if c.SQL != "" {
			sqls = append(sqls, c.SQL)
		}
	}
	if len(sqls) == 0 {
		log.Warn("no candidate SQL produced, skipping merge")
		return results
	}

	p := prompt.Merger(o.Dialect, sqls)
	raw, err := o.Merge.GenerateJSON(llm.WithPhase(ctx, MergeStrategy), p, map[string]string{"question": question})
	if err != nil {
		log.Warn("merge call failed", zap.Error(err))
		return results
	}
	var prop struct {
		SQL         string `json:"sql"`
		Explanation string `json:"explaination"`
	}
	if err := jsonutil.Decode(raw, &prop); err != nil || prop.SQL == "" {
		log.Warn("merge response unusable", zap.Error(err))
		return results
	}

	result, ok := o.Exec.Execute(ctx, prop.SQL)
	if ok && result == "" {
		result = prompt.EmptyReturnValue
	}
	return append(results, Candidate{
		Strategy:        MergeStrategy,
		Thoughts:        []generation.LogStep{{Name: MergeStrategy, Value: prop.Explanation}},
		SQL:             prop.SQL,
		ExecutionResult: result,
		IsSuccess:       ok,
		IsSQLCorrect:    ok,
	})
}

// Describe renders a short per-candidate status line for logging.
func Describe(c Candidate) string {
	return fmt.Sprintf("%s success=%t correct=%t sql=%q", c.Strategy, c.IsSuccess, c.IsSQLCorrect, c.SQL)
}

// Package generation drives a single prompt strategy through a bounded
// generate, validate, execute, fix loop. All LLM and SQL failures inside the
// loop are folded back into state as data and retried through the route
// node; nothing here panics or returns an error to the caller.
package generation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sqlqa/internal/executor"
	"sqlqa/internal/llm"
	"sqlqa/internal/prompt"
	"sqlqa/internal/util/jsonutil"
)

// MaxGenAttempts caps the total rounds per strategy. Route and fix share
// the one counter, so fix retries burn the same budget as regenerations.
const MaxGenAttempts = 3

// LogStep is one audit entry. Only the most recent entry is ever read back,
// to build the next round's evidence string.
type LogStep struct {
	Name  string
	Value string
}

// State is the mutable per-run state of one generator.
type State struct {
	UserQuestion string
	Schema       string
	Strategy     string

	RunIter         int
	SQL             string
	Explanation     string
	ExecutionResult string
	IsSQLCorrect    bool
	Evidence        string

	Logs            []LogStep
	CorrectThoughts []LogStep
}

// IsSuccess reports whether at least one step produced a usable result.
func (s *State) IsSuccess() bool { return len(s.CorrectThoughts) > 0 }

// proposal is the structured shape of generation and fix responses. The
// explaination key is the wire format the prompts ask for.
type proposal struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explaination"`
}

// verdict is the structured shape of validation responses. IsCorrect is a
// pointer so a response missing the field reads as null, not false.
type verdict struct {
	IsCorrect   *bool  `json:"is_sql_correct"`
	Explanation string `json:"explaination"`
}

type node int

const (
	nodeRoute node = iota
	nodeCandidate
	nodeValidate
	nodeShouldFix
	nodeFix
	nodeEnd
)

// Generator runs one strategy. Each of the three LLM roles may be backed by
// a different model per configuration.
type Generator struct {
	Strategy string
	Dialect  string

	Gen   llm.LLMClient
	Val   llm.LLMClient
	Fixer llm.LLMClient

	Exec executor.Executor
	Log  *zap.Logger
}

// Run executes the state machine to completion and returns the final state.
func (g *Generator) Run(ctx context.Context, question, schemaJSON string) *State {
	log := g.Log
	if log == nil {
		log = zap.NewNop()
	}
	st := &State{UserQuestion: question, Schema: schemaJSON, Strategy: g.Strategy}
	n := nodeRoute
	for n != nodeEnd {
		switch n {
		case nodeRoute:
			n = g.route(st, log)
		case nodeCandidate:
			n = g.candidate(ctx, st, log)
		case nodeValidate:
			n = g.validate(ctx, st, log)
		case nodeShouldFix:
			n = g.shouldFix(ctx, st, log)
		case nodeFix:
			n = g.fix(ctx, st, log)
		}
	}
	return st
}

// route starts a round: bumps the attempt counter, distills the last log
// entry into evidence for the next prompt, and exits once the budget is gone.
func (g *Generator) route(st *State, log *zap.Logger) node {
	st.RunIter++
	if len(st.Logs) > 0 {
		last := st.Logs[len(st.Logs)-1]
		st.Evidence = fmt.Sprintf("Chuyên gia %s nói rằng thất bại là: %s", last.Name, last.Value)
	}
	if st.RunIter > MaxGenAttempts {
		log.Debug("generation budget exhausted",
			zap.String("strategy", g.Strategy),
			zap.Int("run_iter", st.RunIter))
		return nodeEnd
	}
	return nodeCandidate
}

func (g *Generator) candidate(ctx context.Context, st *State, log *zap.Logger) node {
	step := g.Strategy + "_candidate"
	p, err := prompt.Generation(g.Strategy, g.Dialect, st.UserQuestion, st.Schema, st.Evidence)
	if err != nil {
		st.Logs = append(st.Logs, LogStep{Name: step, Value: err.Error()})
		return nodeRoute
	}
	prop, err := g.ask(ctx, g.Gen, step, p)
	if err != nil {
		log.Warn("candidate generation failed",
			zap.String("strategy", g.Strategy),
			zap.Int("run_iter", st.RunIter),
			zap.Error(err))
		st.Logs = append(st.Logs, LogStep{Name: step, Value: err.Error()})
		return nodeRoute
	}
	st.SQL = prop.SQL
	st.Explanation = prop.Explanation
	entry := LogStep{Name: step, Value: prop.Explanation}
	st.Logs = append(st.Logs, entry)
	st.CorrectThoughts = append(st.CorrectThoughts, entry)
	return nodeValidate
}

func (g *Generator) validate(ctx context.Context, st *State, log *zap.Logger) node {
	step := g.Strategy + "_validate"
	p := prompt.QueryValidation(g.Dialect, st.UserQuestion, st.SQL)
	raw, err := g.Val.GenerateJSON(llm.WithPhase(ctx, step), p, nil)
	if err != nil {
		log.Warn("validation call failed", zap.String("strategy", g.Strategy), zap.Error(err))
		return nodeRoute
	}
	var v verdict
	if err := jsonutil.Decode(raw, &v); err != nil || v.IsCorrect == nil {
		return nodeRoute
	}
	st.IsSQLCorrect = *v.IsCorrect
	entry := LogStep{Name: step, Value: v.Explanation}
	st.Logs = append(st.Logs, entry)
	if !*v.IsCorrect {
		// The validator's explanation is the next round's evidence.
		return nodeRoute
	}
	st.CorrectThoughts = append(st.CorrectThoughts, entry)
	return nodeShouldFix
}

// shouldFix runs the validated SQL. IsSQLCorrect is overwritten with the
// execution outcome here; downstream reads it as "last check passed".
func (g *Generator) shouldFix(ctx context.Context, st *State, log *zap.Logger) node {
	result, ok := g.Exec.Execute(ctx, st.SQL)
	st.ExecutionResult = renderResult(result, ok)
	st.IsSQLCorrect = ok
	if !ok {
		log.Debug("execution failed, entering fix loop",
			zap.String("strategy", g.Strategy),
			zap.String("error", result))
		return nodeFix
	}
	return nodeEnd
}

func (g *Generator) fix(ctx context.Context, st *State, log *zap.Logger) node {
	step := g.Strategy + "_fix"
	p := prompt.QueryFixing(g.Dialect, st.Schema, st.UserQuestion, st.Explanation, st.SQL, st.ExecutionResult)
	prop, err := g.ask(ctx, g.Fixer, step, p)
	if err != nil {
		log.Warn("fix call failed", zap.String("strategy", g.Strategy), zap.Error(err))
		return nodeRoute
	}
	st.SQL = prop.SQL
	st.Explanation = prop.Explanation

	result, ok := g.Exec.Execute(ctx, st.SQL)
	st.ExecutionResult = renderResult(result, ok)
	st.IsSQLCorrect = ok

	entry := LogStep{Name: step, Value: prop.Explanation}
	st.Logs = append(st.Logs, entry)
	if ok {
		st.CorrectThoughts = append(st.CorrectThoughts, entry)
	}
	st.RunIter++
	if !ok && st.RunIter < MaxGenAttempts {
		return nodeFix
	}
	return nodeEnd
}

// ask calls the model for a {sql, explaination} proposal. An empty sql field
// counts as a null response.
func (g *Generator) ask(ctx context.Context, cli llm.LLMClient, phase, p string) (proposal, error) {
	raw, err := cli.GenerateJSON(llm.WithPhase(ctx, phase), p, nil)
	if err != nil {
		return proposal{}, err
	}
	var prop proposal
	if err := jsonutil.Decode(raw, &prop); err != nil {
		return proposal{}, fmt.Errorf("%w: %v", llm.ErrInvalidJSON, err)
	}
	if strings.TrimSpace(prop.SQL) == "" {
		return proposal{}, fmt.Errorf("%w: empty sql", llm.ErrInvalidJSON)
	}
	return prop, nil
}

func renderResult(result string, ok bool) string {
	if ok && strings.TrimSpace(result) == "" {
		return prompt.EmptyReturnValue
	}
	return result
}

package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"sqlqa/internal/generation"
	"sqlqa/internal/llm"
	"sqlqa/internal/prompt"
	"sqlqa/internal/schema"
	"sqlqa/internal/strategy"
)

type fakeExec struct{}

func (fakeExec) Execute(ctx context.Context, query string) (string, bool) {
	return "(AC/DC)", true
}

type countingExec struct {
	mu    sync.Mutex
	calls int
}

func (c *countingExec) Execute(ctx context.Context, query string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return "(1)", true
}

func (c *countingExec) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func chinookStore() *schema.Store {
	st := schema.NewStore()
	st.Add(&schema.Schema{
		Name: "chinook",
		Tables: []schema.Table{
			{Name: "artists", Columns: []schema.Column{{Name: "id", Type: "int"}, {Name: "name", Type: "text"}}},
			{Name: "albums", Columns: []schema.Column{{Name: "id", Type: "int"}, {Name: "artist_id", Type: "int"}, {Name: "title", Type: "text"}}},
			{Name: "invoices", Columns: []schema.Column{{Name: "id", Type: "int"}, {Name: "total", Type: "numeric"}}},
		},
		ForeignKeys: []string{"albums.artist_id -> artists.id"},
	})
	return st
}

func newAgent(linker llm.LLMClient, gens []*generation.Generator, merge llm.LLMClient) *Agent {
	return &Agent{
		Store:  chinookStore(),
		Linker: linker,
		Orch: &strategy.Orchestrator{
			Generators: gens,
			Merge:      merge,
			Exec:       fakeExec{},
			Dialect:    "postgresql",
		},
		SearchMode: schema.ModeConnected,
		Dialect:    "postgresql",
	}
}

func TestRun_NoTablesFailsFast(t *testing.T) {
	linker := llm.NewScriptedClient(llm.Reply(map[string][]string{"tables": {}}))
	gen := llm.NewScriptedClient()
	a := newAgent(linker, []*generation.Generator{{
		Strategy: prompt.StrategyDirect,
		Dialect:  "postgresql",
		Gen:      gen,
		Val:      llm.NewScriptedClient(),
		Fixer:    llm.NewScriptedClient(),
		Exec:     fakeExec{},
	}}, llm.NewScriptedClient())

	res := a.Run(context.Background(), "câu hỏi không liên quan")

	if res.IsSuccess || res.Error != ErrNoTables {
		t.Fatalf("expected fast no-tables failure, got %+v", res)
	}
	if gen.Calls() != 0 {
		t.Fatal("no generation may be attempted without linked tables")
	}
}

func TestRun_EndToEnd(t *testing.T) {
	linker := llm.NewScriptedClient(llm.Reply(map[string][]string{"tables": {"artists"}}))
	genCli := llm.NewScriptedClient(llm.Reply(map[string]string{
		"sql":          "SELECT name FROM artists",
		"explaination": "liệt kê nghệ sĩ",
	}))
	val := llm.NewScriptedClient(llm.Reply(map[string]any{"is_sql_correct": true, "explaination": "ok"}))
	merge := llm.NewScriptedClient(llm.Reply(map[string]string{
		"sql":          "SELECT name FROM artists",
		"explaination": "giữ nguyên",
	}))

	a := newAgent(linker, []*generation.Generator{{
		Strategy: prompt.StrategyDirect,
		Dialect:  "postgresql",
		Gen:      genCli,
		Val:      val,
		Fixer:    llm.NewScriptedClient(),
		Exec:     fakeExec{},
	}}, merge)

	res := a.Run(context.Background(), "liệt kê nghệ sĩ")

	if !res.IsSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.SQL != "SELECT name FROM artists" || res.ExecutionResult != "(AC/DC)" {
		t.Fatalf("unexpected final result: %+v", res)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected strategy + merge candidates, got %d", len(res.Candidates))
	}
	// Linked schema flows into the generation prompt: artists plus the
	// FK-connected albums, but not invoices.
	if len(genCli.Prompts) == 0 {
		t.Fatal("generator was never called")
	}
	p := genCli.Prompts[0]
	if !strings.Contains(p, "artists") || !strings.Contains(p, "albums") {
		t.Fatalf("generation prompt missing connected tables:\n%s", p)
	}
	if strings.Contains(p, "invoices") {
		t.Fatalf("unlinked table leaked into the generation prompt:\n%s", p)
	}
}

func TestRun_LinkingErrorIsNotNoTables(t *testing.T) {
	linker := llm.NewScriptedClient(llm.Fail(errors.New("model unavailable")))
	gen := llm.NewScriptedClient()
	a := newAgent(linker, []*generation.Generator{{
		Strategy: prompt.StrategyDirect,
		Dialect:  "postgresql",
		Gen:      gen,
		Val:      llm.NewScriptedClient(),
		Fixer:    llm.NewScriptedClient(),
		Exec:     fakeExec{},
	}}, llm.NewScriptedClient())

	res := a.Run(context.Background(), "liệt kê nghệ sĩ")

	if res.IsSuccess || res.Error != ErrLinkingFailed {
		t.Fatalf("linking outage must report %q, got %+v", ErrLinkingFailed, res)
	}
	if gen.Calls() != 0 {
		t.Fatal("no generation may be attempted after a linking failure")
	}
}

func TestRun_RejectedEveryRoundReportsIncorrectSQL(t *testing.T) {
	// The generator always produces SQL, the validator rejects it every
	// round, and the merge call fails. The SQL was never executed, so the
	// answer must be the incorrect-SQL message, not a success with an
	// empty result.
	linker := llm.NewScriptedClient(llm.Reply(map[string][]string{"tables": {"artists"}}))
	genCli := llm.NewScriptedClient(llm.Reply(map[string]string{
		"sql":          "SELECT name FROM artists",
		"explaination": "liệt kê nghệ sĩ",
	}))
	val := llm.NewScriptedClient(llm.Reply(map[string]any{"is_sql_correct": false, "explaination": "sai cột"}))
	exec := &countingExec{}

	a := &Agent{
		Store:  chinookStore(),
		Linker: linker,
		Orch: &strategy.Orchestrator{
			Generators: []*generation.Generator{{
				Strategy: prompt.StrategyDirect,
				Dialect:  "postgresql",
				Gen:      genCli,
				Val:      val,
				Fixer:    llm.NewScriptedClient(),
				Exec:     exec,
			}},
			Merge:   llm.NewScriptedClient(llm.Fail(errors.New("model unavailable"))),
			Exec:    exec,
			Dialect: "postgresql",
		},
		SearchMode: schema.ModeConnected,
		Dialect:    "postgresql",
	}

	res := a.Run(context.Background(), "liệt kê nghệ sĩ")

	if res.IsSuccess {
		t.Fatalf("unexecuted SQL must not surface as success: %+v", res)
	}
	if res.Error != ErrIncorrectSQL {
		t.Fatalf("expected %q, got %q", ErrIncorrectSQL, res.Error)
	}
	if res.ExecutionResult != "" || exec.Calls() != 0 {
		t.Fatalf("rejected SQL must never reach the executor, got %d calls", exec.Calls())
	}
}

func TestRun_MergePreferredOverStrategyCandidate(t *testing.T) {
	candidates := []strategy.Candidate{
		{Strategy: prompt.StrategyDirect, SQL: "SELECT 1", ExecutionResult: "(1)", IsSuccess: true, IsSQLCorrect: true},
		{Strategy: strategy.MergeStrategy, SQL: "SELECT 2", ExecutionResult: "(2)", IsSuccess: true, IsSQLCorrect: true},
	}
	res := pick(candidates)
	if res.SQL != "SELECT 2" {
		t.Fatalf("expected the merge candidate, got %+v", res)
	}
}

func TestRun_PickFallsBackToFirstSuccess(t *testing.T) {
	candidates := []strategy.Candidate{
		{Strategy: prompt.StrategyDirect, SQL: "SELECT 1", IsSuccess: false},
		{Strategy: prompt.StrategyCoT, SQL: "SELECT 2", ExecutionResult: "(2)", IsSuccess: true, IsSQLCorrect: true},
		{Strategy: strategy.MergeStrategy, SQL: "SELECT 3", IsSuccess: false},
	}
	res := pick(candidates)
	if !res.IsSuccess || res.SQL != "SELECT 2" {
		t.Fatalf("expected first successful strategy candidate, got %+v", res)
	}
}

func TestRun_PickRequiresVerifiedSQL(t *testing.T) {
	// A branch with a successful generation step but no passing validation
	// or execution carries IsSuccess without IsSQLCorrect.
	candidates := []strategy.Candidate{
		{Strategy: prompt.StrategyDirect, SQL: "SELECT 1", IsSuccess: true, IsSQLCorrect: false},
	}
	res := pick(candidates)
	if res.IsSuccess || res.Error != ErrIncorrectSQL {
		t.Fatalf("unverified SQL must report %q, got %+v", ErrIncorrectSQL, res)
	}
}

func TestRun_PickReportsFailureStrings(t *testing.T) {
	res := pick([]strategy.Candidate{{Strategy: prompt.StrategyDirect, SQL: "SELECT 1"}})
	if res.Error != ErrIncorrectSQL {
		t.Fatalf("produced-but-unvalidated SQL should report %q, got %q", ErrIncorrectSQL, res.Error)
	}
	res = pick([]strategy.Candidate{{Strategy: prompt.StrategyDirect}})
	if res.Error != ErrGenFailed {
		t.Fatalf("no SQL at all should report %q, got %q", ErrGenFailed, res.Error)
	}
}

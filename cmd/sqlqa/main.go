// Command sqlqa answers one natural-language question by generating,
// validating and repairing SQL against the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sqlqa/internal/agent"
	"sqlqa/internal/config"
	"sqlqa/internal/executor"
	"sqlqa/internal/generation"
	"sqlqa/internal/llm"
	"sqlqa/internal/schema"
	"sqlqa/internal/strategy"
	"sqlqa/internal/turnlog"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "config.yaml", "path to the YAML configuration")
		question   = flag.String("question", "", "the question to answer")
	)
	flag.Parse()

	if *question == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*configPath, *question); err != nil {
		fmt.Fprintln(os.Stderr, "sqlqa:", err)
		os.Exit(1)
	}
}

func run(configPath, question string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	sc, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		return err
	}
	store := schema.NewStore()
	store.Add(sc)

	turn, err := turnlog.New(cfg.TurnLogFile, turnlog.ColID, turnlog.ColCreatedDate)
	if err != nil {
		return err
	}
	defer turn.Close()
	log.Info("turn log", zap.String("path", turn.Path()))

	exec, err := executor.Open(cfg.Database.Conn, log)
	if err != nil {
		return err
	}
	defer exec.Close()

	clients, closeAll, err := openClients(ctx, &cfg, log, turn)
	if err != nil {
		return err
	}
	defer closeAll()

	mode, err := schema.ParseMode(cfg.SchemaSearchMode)
	if err != nil {
		return err
	}

	gens := make([]*generation.Generator, 0, len(cfg.CandidateGenerations))
	for _, g := range cfg.CandidateGenerations {
		gens = append(gens, &generation.Generator{
			Strategy: g.PromptType,
			Dialect:  cfg.Database.Dialect,
			Gen:      clients[g.Generation.Model],
			Val:      clients[g.Validation.Model],
			Fixer:    clients[g.Fixer.Model],
			Exec:     exec,
			Log:      log,
		})
	}

	a := &agent.Agent{
		Store:  store,
		Linker: clients[cfg.SchemaLinking.Model],
		Orch: &strategy.Orchestrator{
			Generators: gens,
			Merge:      clients[cfg.Merger.Model],
			Exec:       exec,
			Dialect:    cfg.Database.Dialect,
			Log:        log,
		},
		SearchMode: mode,
		Dialect:    cfg.Database.Dialect,
		Log:        log,
	}

	return answer(ctx, a, turn, question)
}

func answer(ctx context.Context, a *agent.Agent, turn *turnlog.Logger, question string) error {
	if err := turn.NewTurn(); err != nil {
		return err
	}
	turn.Log("question", question)

	res := a.Run(ctx, question)
	turn.Log("final_sql", res.SQL)
	turn.Log("final_result", res.ExecutionResult)
	if res.Error != "" {
		turn.Log("error", res.Error)
	}

	if !res.IsSuccess {
		fmt.Println(res.Error)
		return turn.SaveTurn()
	}
	fmt.Println("SQL:", res.SQL)
	fmt.Println(res.ExecutionResult)
	return turn.SaveTurn()
}

// openClients builds one Gemini client per distinct configured model, each
// wrapped with transport retries, call logging and the turn-log hook.
func openClients(ctx context.Context, cfg *config.Config, log *zap.Logger, turn *turnlog.Logger) (map[string]llm.LLMClient, func(), error) {
	hook := turnlog.Hook{Log: turn}
	clients := make(map[string]llm.LLMClient)
	var bases []*llm.GeminiClient
	for _, model := range cfg.Models() {
		base, err := llm.NewGeminiClient(ctx, model)
		if err != nil {
			for _, b := range bases {
				b.Close()
			}
			return nil, nil, fmt.Errorf("open model %s: %w", model, err)
		}
		bases = append(bases, base)
		clients[model] = llm.WithHook(
			llm.Wrap(base,
				llm.Retry(7, 7*time.Second),
				llm.WithLogging(log),
				llm.WithHooks(),
			),
			hook,
		)
	}
	closeAll := func() {
		for _, b := range bases {
			b.Close()
		}
	}
	return clients, closeAll, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg.Level = lvl
	return cfg.Build()
}

// Package config loads pipeline settings. Precedence, lowest to highest:
// built-in defaults, the YAML file, the .env file, process environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sqlqa/internal/prompt"
	"sqlqa/internal/schema"
)

// Database holds the target connection the generated SQL runs against.
type Database struct {
	// Dialect is one of sqlite, mysql, postgresql. It is injected into the
	// prompts verbatim so the model emits matching syntax.
	Dialect string `yaml:"dialect"`
	Conn    string `yaml:"conn"`
}

// Logging configures the structured logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Model names the LLM backing one pipeline role.
type Model struct {
	Model string `yaml:"model"`
}

// Generation configures one candidate-generation strategy and the models
// backing its three steps.
type Generation struct {
	PromptType string `yaml:"prompt_type"`
	Generation Model  `yaml:"generation_kwargs"`
	Validation Model  `yaml:"query_validation_kwargs"`
	Fixer      Model  `yaml:"query_fixer_kwargs"`
}

// Config is the full pipeline configuration.
type Config struct {
	Mode        string   `yaml:"mode"`
	SchemaPath  string   `yaml:"schema_path"`
	Database    Database `yaml:"database"`
	Logging     Logging  `yaml:"logging"`
	TurnLogFile string   `yaml:"turn_log_file"`

	// SchemaSearchMode selects how linked table names expand into a schema
	// subset: exact, connected, or same.
	SchemaSearchMode string `yaml:"schema_search_mode"`

	SchemaLinking        Model        `yaml:"schema_linking"`
	Merger               Model        `yaml:"merger"`
	CandidateGenerations []Generation `yaml:"candidate_generations"`
}

const defaultModel = "gemini-2.0-flash"

func defaults() Config {
	gens := make([]Generation, 0, len(prompt.Strategies))
	for _, s := range prompt.Strategies {
		gens = append(gens, Generation{
			PromptType: s,
			Generation: Model{Model: defaultModel},
			Validation: Model{Model: defaultModel},
			Fixer:      Model{Model: defaultModel},
		})
	}
	return Config{
		Mode: "dev",
		Database: Database{
			Dialect: "postgresql",
			Conn:    "postgres://localhost:5432/chinook",
		},
		Logging:              Logging{Level: "info"},
		TurnLogFile:          "./logs/turn_log.tsv",
		SchemaSearchMode:     "connected",
		SchemaLinking:        Model{Model: defaultModel},
		Merger:               Model{Model: defaultModel},
		CandidateGenerations: gens,
	}
}

// Load reads the YAML file at path (missing file is fine, defaults apply),
// merges .env and environment overrides, and validates the result.
func Load(path string) (Config, error) {
	// .env values become process env without clobbering explicit env vars.
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Mode, "MODE")
	setString(&c.SchemaPath, "SCHEMA_PATH")
	setString(&c.Database.Dialect, "DB_DIALECT")
	setString(&c.Database.Conn, "DB_CONN")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.TurnLogFile, "TURN_LOG_FILE")
	setString(&c.SchemaSearchMode, "SCHEMA_SEARCH_MODE")
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.SchemaLinking.Model = v
		c.Merger.Model = v
		for i := range c.CandidateGenerations {
			c.CandidateGenerations[i].Generation.Model = v
			c.CandidateGenerations[i].Validation.Model = v
			c.CandidateGenerations[i].Fixer.Model = v
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Database.Dialect) {
	case "sqlite", "mysql", "postgresql":
	default:
		return fmt.Errorf("config: unknown dialect %q", c.Database.Dialect)
	}
	if c.SchemaPath == "" {
		return fmt.Errorf("config: schema_path is required")
	}
	if _, err := schema.ParseMode(c.SchemaSearchMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(c.CandidateGenerations) == 0 {
		return fmt.Errorf("config: at least one candidate generation strategy is required")
	}
	seen := make(map[string]bool, len(c.CandidateGenerations))
	for _, g := range c.CandidateGenerations {
		if _, err := prompt.Generation(g.PromptType, c.Database.Dialect, "", "", ""); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if seen[g.PromptType] {
			return fmt.Errorf("config: duplicate strategy %q", g.PromptType)
		}
		seen[g.PromptType] = true
	}
	return nil
}

// Models returns every distinct model name the configuration references,
// in first-use order. The caller opens one client per entry.
func (c *Config) Models() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	add(c.SchemaLinking.Model)
	for _, g := range c.CandidateGenerations {
		add(g.Generation.Model)
		add(g.Validation.Model)
		add(g.Fixer.Model)
	}
	add(c.Merger.Model)
	return out
}

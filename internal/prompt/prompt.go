// Package prompt holds the Vietnamese prompt templates of the pipeline and
// their formatting helpers. Formatting is pure string substitution: the same
// inputs always produce byte-identical prompts.
package prompt

import (
	"fmt"
	"strings"
)

// Strategy names, as referenced from configuration.
const (
	StrategyDirect    = "direct_generation"
	StrategyCoT       = "cot_generation"
	StrategyDaCCoT    = "dac_cot_generation"
	StrategyQueryPlan = "query_plan_generation"
)

// Strategies lists every known generation strategy in canonical order.
var Strategies = []string{StrategyDirect, StrategyCoT, StrategyDaCCoT, StrategyQueryPlan}

// EmptyReturnValue is shown in place of an empty query result.
const EmptyReturnValue = "Không có kết quả trả về"

// fence substitutes for code fences inside raw-string templates.
const fence = "{fence}"

func expand(template string, pairs ...string) string {
	pairs = append(pairs, fence, "```")
	return strings.NewReplacer(pairs...).Replace(template)
}

// System renders the shared system preamble for the given SQL dialect.
func System(dialect string) string {
	return expand(systemTemplate, "{dialect}", strings.ToUpper(dialect))
}

// TableLinking renders the schema-linking prompt.
func TableLinking(question, schemaJSON string) string {
	return expand(tableLinkingTemplate,
		"{question}", question,
		"{schema}", schemaJSON,
	)
}

// Generation renders the strategy-specific generation prompt. The evidence
// block carries feedback from a prior failed round and may be empty.
func Generation(strategy, dialect, question, schemaJSON, evidence string) (string, error) {
	body, ok := generationBodies[strategy]
	if !ok {
		return "", fmt.Errorf("prompt: unknown strategy %q", strategy)
	}
	d := strings.ToUpper(dialect)
	full := expand(genPrefixTemplate, "{dialect}", d) + body + genSuffixTemplate
	return expand(full,
		"{question}", question,
		"{schema}", schemaJSON,
		"{evidence}", evidence,
		"{dialect}", d,
	), nil
}

// QueryValidation renders the SQL correctness-review prompt.
func QueryValidation(dialect, question, query string) string {
	d := strings.ToUpper(dialect)
	return expand(expand(genPrefixTemplate, "{dialect}", d)+queryValidationTemplate,
		"{question}", question,
		"{query}", query,
		"{dialect}", d,
	)
}

// QueryFixing renders the repair prompt fed with the failed execution.
func QueryFixing(dialect, schemaJSON, question, evidence, query, result string) string {
	d := strings.ToUpper(dialect)
	return expand(expand(genPrefixTemplate, "{dialect}", d)+queryFixingTemplate,
		"{schema}", schemaJSON,
		"{question}", question,
		"{evidence}", evidence,
		"{query}", query,
		"{result}", result,
	)
}

// Merger renders the reconciliation prompt over every produced candidate.
func Merger(dialect string, candidates []string) string {
	var b strings.Builder
	for i, sql := range candidates {
		fmt.Fprintf(&b, "Câu lệnh SQL %d: \n```sql\n%s\n```\n", i+1, sql)
	}
	return expand(expand(genPrefixTemplate, "{dialect}", strings.ToUpper(dialect))+mergerTemplate,
		"{candidates}", strings.TrimRight(b.String(), "\n"),
	)
}

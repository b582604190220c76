package tools

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/husain-clintel/Pharmascribe-sub000/report"
)

//go:embed qc_rules.yaml
var qcRulesYAML []byte

type qcRuleSpec struct {
	ID         string   `yaml:"id"`
	Pattern    string   `yaml:"pattern"`
	Pair       []string `yaml:"pair"`
	Severity   string   `yaml:"severity"`
	Message    string   `yaml:"message"`
	Suggestion string   `yaml:"suggestion"`
}

type qcRule struct {
	qcRuleSpec
	category string
	patterns []*regexp.Regexp
}

var (
	qcRulesOnce sync.Once
	qcRules     map[string][]qcRule
	qcRulesErr  error
)

func loadQCRules() (map[string][]qcRule, error) {
	qcRulesOnce.Do(func() {
		qcRules, qcRulesErr = parseQCRules(qcRulesYAML)
	})
	return qcRules, qcRulesErr
}

func parseQCRules(data []byte) (map[string][]qcRule, error) {
	var specs map[string][]qcRuleSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse QC rules: %w", err)
	}

	rules := make(map[string][]qcRule, len(specs))
	for category, list := range specs {
		for _, spec := range list {
			switch report.Severity(spec.Severity) {
			case report.SeverityError, report.SeverityWarning, report.SeveritySuggestion:
			default:
				return nil, fmt.Errorf("rule %s: unknown severity %q", spec.ID, spec.Severity)
			}

			sources := spec.Pair
			if spec.Pattern != "" {
				sources = []string{spec.Pattern}
			}
			if len(sources) == 0 || (spec.Pair != nil && len(spec.Pair) != 2) {
				return nil, fmt.Errorf("rule %s: needs a pattern or a pair of two patterns", spec.ID)
			}

			rule := qcRule{qcRuleSpec: spec, category: category}
			for _, src := range sources {
				re, err := regexp.Compile(src)
				if err != nil {
					return nil, fmt.Errorf("rule %s: %w", spec.ID, err)
				}
				rule.patterns = append(rule.patterns, re)
			}
			rules[category] = append(rules[category], rule)
		}
	}
	return rules, nil
}

// QCResult is the outcome of a QC check.
type QCResult struct {
	Score       int              `json:"score"`
	Issues      []report.QCIssue `json:"issues"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Suggestions int              `json:"suggestions"`
	Checked     []string         `json:"checked"`
}

// QCScore is 100 minus 15 per error and 5 per warning, floored at 0.
func QCScore(errors, warnings int) int {
	return max(0, 100-15*errors-5*warnings)
}

// RunQC applies the rules of the requested categories to text. Categories
// run in a fixed order, rules in file order, matches in text order.
func RunQC(text string, checks []string) (*QCResult, error) {
	rules, err := loadQCRules()
	if err != nil {
		return nil, err
	}

	res := &QCResult{Issues: []report.QCIssue{}, Checked: []string{}}
	want := map[string]bool{}
	for _, c := range checks {
		want[c] = true
	}

	for _, category := range qcCategories {
		if len(checks) > 0 && !want[category] {
			continue
		}
		res.Checked = append(res.Checked, category)
		for _, rule := range rules[category] {
			res.Issues = append(res.Issues, rule.apply(text)...)
		}
	}

	for _, issue := range res.Issues {
		switch issue.Severity {
		case report.SeverityError:
			res.Errors++
		case report.SeverityWarning:
			res.Warnings++
		case report.SeveritySuggestion:
			res.Suggestions++
		}
	}
	res.Score = QCScore(res.Errors, res.Warnings)
	return res, nil
}

func (r qcRule) issue(text string, loc []int) report.QCIssue {
	start, end := loc[0], loc[1]
	if len(loc) >= 4 && loc[2] >= 0 {
		start, end = loc[2], loc[3]
	}
	line := strings.Count(text[:start], "\n") + 1
	return report.QCIssue{
		Severity:   report.Severity(r.Severity),
		Category:   r.category,
		Location:   fmt.Sprintf("line %d: %q", line, text[start:end]),
		Message:    r.Message,
		Suggestion: r.Suggestion,
	}
}

func (r qcRule) apply(text string) []report.QCIssue {
	if len(r.patterns) == 2 {
		first := r.patterns[0].FindStringSubmatchIndex(text)
		second := r.patterns[1].FindStringSubmatchIndex(text)
		if first == nil || second == nil {
			return nil
		}
		return []report.QCIssue{r.issue(text, second)}
	}

	var issues []report.QCIssue
	for _, loc := range r.patterns[0].FindAllStringSubmatchIndex(text, -1) {
		issues = append(issues, r.issue(text, loc))
	}
	return issues
}

type qcArgs struct {
	Text   string   `json:"text"`
	Checks []string `json:"checks"`
}

func checkQCHandler() Handler {
	return func(ctx context.Context, ec ExecutionContext, raw map[string]any) (Output, error) {
		var args qcArgs
		if err := decodeArgs(CheckQC, raw, &args); err != nil {
			return Output{}, err
		}
		if strings.TrimSpace(args.Text) == "" {
			return Output{}, invalidArgs(CheckQC, "text is required")
		}
		for _, c := range args.Checks {
			if !contains(qcCategories, c) {
				return Output{}, invalidArgs(CheckQC, "unknown check %q, expected one of %v", c, qcCategories)
			}
		}

		res, err := RunQC(args.Text, args.Checks)
		if err != nil {
			return Output{}, err
		}
		return Output{
			Content:     res,
			StepSummary: fmt.Sprintf("QC check: %d issue(s), score %d", len(res.Issues), res.Score),
		}, nil
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

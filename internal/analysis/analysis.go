// Package analysis produces a structured digest of the newest changelog
// versions, cached by the fingerprint of the digest text.
package analysis

import (
	"fmt"
	"strings"
)

// Sentiment is the overall tone of a release window.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentCritical Sentiment = "critical"
)

// Severity ranks the impact of a removal.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Removal describes a feature that went away and why it matters.
type Removal struct {
	Feature  string   `json:"feature"`
	Severity Severity `json:"severity"`
	Why      string   `json:"why"`
}

// Categories groups notable items by theme.
type Categories struct {
	CriticalBreakingChanges []string  `json:"critical_breaking_changes"`
	Removals                []Removal `json:"removals"`
	MajorFeatures           []string  `json:"major_features"`
	ImportantFixes          []string  `json:"important_fixes"`
	NewSlashCommands        []string  `json:"new_slash_commands"`
	TerminalImprovements    []string  `json:"terminal_improvements"`
	APIChanges              []string  `json:"api_changes"`
}

// Result is the analysis of the newest versions.
type Result struct {
	TLDR        string     `json:"tldr"`
	Categories  Categories `json:"categories"`
	ActionItems []string   `json:"action_items"`
	Sentiment   Sentiment  `json:"sentiment"`
}

// Validate checks enumerated fields and fills nil lists so the JSON form is stable.
func (r *Result) Validate() error {
	if strings.TrimSpace(r.TLDR) == "" {
		return fmt.Errorf("analysis: empty tldr")
	}
	switch r.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentCritical:
	default:
		return fmt.Errorf("analysis: invalid sentiment %q", r.Sentiment)
	}
	for i, rm := range r.Categories.Removals {
		switch rm.Severity {
		case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		default:
			return fmt.Errorf("analysis: removal %d: invalid severity %q", i, rm.Severity)
		}
	}

	c := &r.Categories
	for _, list := range []*[]string{
		&c.CriticalBreakingChanges, &c.MajorFeatures, &c.ImportantFixes,
		&c.NewSlashCommands, &c.TerminalImprovements, &c.APIChanges, &r.ActionItems,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
	if c.Removals == nil {
		c.Removals = []Removal{}
	}
	return nil
}

// AnalysisError wraps a failed analysis. Callers log it and continue without
// an analysis.
type AnalysisError struct {
	Fingerprint string
	Err         error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

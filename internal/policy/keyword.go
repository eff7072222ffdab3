package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/auditgate/internal/model"
)

// TermRule forbids a term in task descriptions under a principle.
type TermRule struct {
	Term      string          `yaml:"term" json:"term"`
	Principle model.Principle `yaml:"principle" json:"principle"`
}

// DefaultTerms returns the built-in forbidden terms.
func DefaultTerms() []TermRule {
	return []TermRule{
		{Term: "conflict", Principle: model.Efficiency},
		{Term: "waste", Principle: model.Efficiency},
		{Term: "risk", Principle: model.NonHarm},
		{Term: "harm", Principle: model.NonHarm},
	}
}

// Keyword rejects tasks whose description contains a forbidden term.
// Matching is case-insensitive substring search; rules are checked in order
// and the first match decides the reason.
type Keyword struct {
	rules []TermRule
}

// NewKeyword creates a Keyword auditor. Terms are lowercased and empty terms
// are dropped. A rule without a principle is filed under non_harm.
func NewKeyword(rules []TermRule) *Keyword {
	k := &Keyword{rules: make([]TermRule, 0, len(rules))}
	for _, r := range rules {
		term := strings.ToLower(strings.TrimSpace(r.Term))
		if term == "" {
			continue
		}
		principle := r.Principle
		if principle == "" {
			principle = model.NonHarm
		}
		k.rules = append(k.rules, TermRule{Term: term, Principle: principle})
	}
	return k
}

// Rules returns a copy of the normalized rules.
func (k *Keyword) Rules() []TermRule {
	out := make([]TermRule, len(k.rules))
	copy(out, k.rules)
	return out
}

// Evaluate implements Auditor.
func (k *Keyword) Evaluate(ctx context.Context, task model.Task) (model.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return model.Verdict{}, err
	}
	if task.Description == "" {
		return model.Approve(), nil
	}

	desc := strings.ToLower(task.Description)
	for _, r := range k.rules {
		if strings.Contains(desc, r.Term) {
			return model.Reject(r.Principle, fmt.Sprintf("%s: description contains forbidden term %q", r.Principle, r.Term)), nil
		}
	}
	return model.Approve(), nil
}

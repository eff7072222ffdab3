package policydiff

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/policy"
)

// Change represents a scalar field change.
type Change struct {
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Comment string `json:"comment,omitempty"`
}

// TermChange represents a forbidden term addition, removal, or move to a
// different principle.
type TermChange struct {
	Type string `json:"type"` // "added", "removed", "changed"
	Term string `json:"term"`
}

// DiffResult holds the comparison of two PolicyConfigs.
type DiffResult struct {
	OldPath     string       `json:"old_path"`
	NewPath     string       `json:"new_path"`
	Changes     []Change     `json:"changes"`
	TermChanges []TermChange `json:"term_changes"`
	HasChanges  bool         `json:"has_changes"`
}

// Diff compares two PolicyConfigs and returns the differences.
func Diff(old, new *policy.PolicyConfig) *DiffResult {
	r := &DiffResult{}

	diffDuration(r, "timeout", old.Timeout, new.Timeout)

	for _, p := range model.Principles {
		if o, n := old.Mandates.For(p), new.Mandates.For(p); o != n {
			r.Changes = append(r.Changes, Change{Field: "mandates." + string(p), Old: o, New: n})
		}
	}

	diffJudge(r, old.Judge, new.Judge)
	diffTerms(r, old.ForbiddenTerms, new.ForbiddenTerms)

	if o, n := len(old.Alerts), len(new.Alerts); o != n {
		r.Changes = append(r.Changes, Change{
			Field: "alerts",
			Old:   fmt.Sprintf("%d webhook(s)", o),
			New:   fmt.Sprintf("%d webhook(s)", n),
		})
	}

	r.HasChanges = len(r.Changes) > 0 || len(r.TermChanges) > 0
	return r
}

// diffDuration compares audit bounds. A shorter timeout blocks more tasks
// with AUDIT_UNAVAILABLE, so shorter is stricter.
func diffDuration(r *DiffResult, field string, old, new time.Duration) {
	if old == new {
		return
	}
	comment := "looser"
	if new < old {
		comment = "stricter"
	}
	r.Changes = append(r.Changes, Change{
		Field:   field,
		Old:     old.String(),
		New:     new.String(),
		Comment: comment,
	})
}

func diffJudge(r *DiffResult, old, new policy.JudgeConfig) {
	switch {
	case !old.Enabled() && new.Enabled():
		r.Changes = append(r.Changes, Change{Field: "judge", Old: "disabled", New: new.APIURL, Comment: "stricter"})
		return
	case old.Enabled() && !new.Enabled():
		r.Changes = append(r.Changes, Change{Field: "judge", Old: old.APIURL, New: "disabled", Comment: "looser"})
		return
	case !old.Enabled():
		return
	}
	if old.APIURL != new.APIURL {
		r.Changes = append(r.Changes, Change{Field: "judge.api_url", Old: old.APIURL, New: new.APIURL})
	}
	if old.Model != new.Model {
		r.Changes = append(r.Changes, Change{Field: "judge.model", Old: old.Model, New: new.Model})
	}
	if old.Timeout != new.Timeout {
		diffDuration(r, "judge.timeout", old.Timeout, new.Timeout)
	}
}

func termKey(t policy.TermRule) string {
	return strings.ToLower(strings.TrimSpace(t.Term))
}

func diffTerms(r *DiffResult, oldTerms, newTerms []policy.TermRule) {
	oldMap := make(map[string]policy.TermRule)
	for _, t := range oldTerms {
		oldMap[termKey(t)] = t
	}
	newMap := make(map[string]policy.TermRule)
	for _, t := range newTerms {
		newMap[termKey(t)] = t
	}

	for _, t := range newTerms {
		k := termKey(t)
		if oldTerm, exists := oldMap[k]; exists {
			if oldTerm.Principle != t.Principle {
				r.TermChanges = append(r.TermChanges, TermChange{
					Type: "changed",
					Term: fmt.Sprintf("%q → %s (was: %s)", k, t.Principle, oldTerm.Principle),
				})
			}
		} else {
			r.TermChanges = append(r.TermChanges, TermChange{
				Type: "added",
				Term: fmt.Sprintf("%q → %s", k, t.Principle),
			})
		}
	}

	for _, t := range oldTerms {
		k := termKey(t)
		if _, exists := newMap[k]; !exists {
			r.TermChanges = append(r.TermChanges, TermChange{
				Type: "removed",
				Term: fmt.Sprintf("%q → %s", k, t.Principle),
			})
		}
	}
}

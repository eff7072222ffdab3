package policy

import "github.com/ppiankov/auditgate/internal/model"

// Mandates maps each principle to the rule text it stands for.
type Mandates map[model.Principle]string

// DefaultMandates returns the built-in principle wording.
func DefaultMandates() Mandates {
	return Mandates{
		model.NonHarm:      "Protect self and collective system. Reject risky transactions.",
		model.Efficiency:   "Optimal resource utilization. No high-fidelity waste.",
		model.Truthfulness: "Adhere to verifiable ground truth. Resolve ambiguity by this config.",
	}
}

// For returns the mandate for p, falling back to the built-in wording.
func (m Mandates) For(p model.Principle) string {
	if s, ok := m[p]; ok && s != "" {
		return s
	}
	return DefaultMandates()[p]
}

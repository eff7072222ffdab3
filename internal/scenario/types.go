package scenario

// Case is one test case within a scenario.
type Case struct {
	Description    string `yaml:"description"`
	Principle      string `yaml:"principle,omitempty"`
	Operation      string `yaml:"operation,omitempty"`
	Expect         string `yaml:"expect"`
	ReasonContains string `yaml:"reason_contains,omitempty"`
}

// Scenario is a named collection of audit test cases. Principle is the
// default for cases that name none.
type Scenario struct {
	Name      string `yaml:"name"`
	Principle string `yaml:"principle,omitempty"`
	Cases     []Case `yaml:"cases"`
}

// CaseResult is the outcome of dispatching one test case.
type CaseResult struct {
	Index       int    `json:"index"`
	Passed      bool   `json:"passed"`
	Description string `json:"description"`
	Principle   string `json:"principle"`
	Expected    string `json:"expected"`
	Actual      string `json:"actual"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}

package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/neurorouter"

	"github.com/ppiankov/auditgate/internal/model"
)

// JudgeConfig holds parameters for an external judgment service speaking the
// OpenAI-compatible chat completions protocol.
type JudgeConfig struct {
	APIURL    string        `yaml:"api_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	APIKey    string        `yaml:"-"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Enabled reports whether a judgment endpoint is configured.
func (c JudgeConfig) Enabled() bool {
	return c.APIURL != ""
}

// ErrJudgeResponse is returned when the judgment service answers with
// something that is not a verdict.
var ErrJudgeResponse = errors.New("judge: unusable response")

const judgeSystemPrompt = `You are a compliance auditor for autonomous agent actions.
You receive a governing principle with its mandate and a proposed task description.
Decide whether the task complies with the mandate.

Return ONLY valid JSON, no markdown fences, no commentary:
{"compliant":true|false,"reason":"<short reason when not compliant>"}`

// Judge consults an external judgment service. It holds no mutable state
// and is safe for concurrent use.
type Judge struct {
	cfg      JudgeConfig
	mandates Mandates
	client   *http.Client
}

// NewJudge creates a Judge. Zero-valued limits get defaults.
func NewJudge(cfg JudgeConfig, mandates Mandates) *Judge {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if mandates == nil {
		mandates = DefaultMandates()
	}
	return &Judge{
		cfg:      cfg,
		mandates: mandates,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Evaluate implements Auditor. Transport failures, non-200 answers and
// unparseable bodies are errors; HTTP 429 wraps neurorouter.ErrRateLimited.
func (j *Judge) Evaluate(ctx context.Context, task model.Task) (model.Verdict, error) {
	if task.Description == "" {
		return model.Approve(), nil
	}

	principle := task.Principle
	if !principle.Valid() {
		principle = model.NonHarm
	}

	user := fmt.Sprintf("Principle: %s\nMandate: %s\nTask: %s", principle, j.mandates.For(principle), task.Description)
	body, err := json.Marshal(map[string]any{
		"model": j.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": judgeSystemPrompt},
			{"role": "user", "content": user},
		},
		"max_tokens":  j.cfg.MaxTokens,
		"temperature": 0,
	})
	if err != nil {
		return model.Verdict{}, fmt.Errorf("judge: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return model.Verdict{}, fmt.Errorf("judge: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if j.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+j.cfg.APIKey)
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("judge: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusTooManyRequests {
		return model.Verdict{}, fmt.Errorf("judge: %w", neurorouter.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Verdict{}, fmt.Errorf("judge: HTTP %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(respBody)), 200))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil || len(result.Choices) == 0 {
		return model.Verdict{}, fmt.Errorf("%w: empty completion", ErrJudgeResponse)
	}

	return parseJudgment(principle, result.Choices[0].Message.Content)
}

func parseJudgment(principle model.Principle, raw string) (model.Verdict, error) {
	raw = cleanJSON(raw)

	var j struct {
		Compliant *bool  `json:"compliant"`
		Reason    string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw), &j); err != nil || j.Compliant == nil {
		return model.Verdict{}, fmt.Errorf("%w: %s", ErrJudgeResponse, truncate(raw, 200))
	}
	if *j.Compliant {
		return model.Approve(), nil
	}

	reason := strings.TrimSpace(j.Reason)
	if reason == "" {
		reason = "rejected by judge"
	}
	return model.Reject(principle, fmt.Sprintf("%s: %s", principle, reason)), nil
}

// cleanJSON strips markdown fences and surrounding whitespace.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

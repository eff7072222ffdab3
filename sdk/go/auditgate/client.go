package auditgate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/auditgate/internal/engine"
)

// Client holds the audit pipeline for in-process enforcement.
// Safe for concurrent use.
type Client struct {
	cfg clientConfig
	eng *engine.Engine
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{
		logger:    slog.Default(),
		principle: NonHarm,
	}
	for _, o := range opts {
		o(&cfg)
	}

	eng, err := engine.Load(engine.Config{
		PolicyPath: cfg.policyPath,
		AgentName:  cfg.agentName,
		Logger:     cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("auditgate: %w", err)
	}
	return &Client{cfg: cfg, eng: eng}, nil
}

// Check audits a task without executing anything.
func (c *Client) Check(ctx context.Context, task Task) Result {
	return toResult(task, c.eng.Check(ctx, task))
}

// Dispatch runs one of the bundled agent operations through its boundary.
// An empty operation means execute_task.
func (c *Client) Dispatch(ctx context.Context, operation string, task Task) (Outcome, error) {
	out, err := c.eng.Dispatch(ctx, operation, task)
	if err != nil {
		return Outcome{}, err
	}
	return toOutcome(task, out), nil
}

// Operations lists the bundled operation names.
func (c *Client) Operations() []string {
	return c.eng.Ops.Names()
}

// PolicyHash identifies the loaded policy.
func (c *Client) PolicyHash() string {
	return c.eng.PolicyHash
}

// Close waits for pending alert deliveries.
func (c *Client) Close() error {
	c.eng.Alerts.Wait()
	return nil
}

package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/policy"
	"github.com/ppiankov/auditgate/internal/server"
)

// DefaultTimeout bounds a single remote call when the caller's context
// carries no deadline.
const DefaultTimeout = 5 * time.Second

// Client connects to an auditgate gRPC server. It satisfies policy.Auditor,
// so a local boundary can delegate its audit to a central server.
type Client struct {
	conn    *grpc.ClientConn
	rpc     *server.Client
	timeout time.Duration
}

var _ policy.Auditor = (*Client)(nil)

// New creates a gRPC client for addr. The connection is established lazily;
// an unreachable server surfaces as an error from Evaluate, which a
// boundary turns into AUDIT_UNAVAILABLE.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit server: %w", err)
	}
	return &Client{
		conn:    conn,
		rpc:     server.NewClient(conn),
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout changes the per-call bound. Zero keeps DefaultTimeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// Evaluate sends task to the remote server for auditing.
func (c *Client) Evaluate(ctx context.Context, task model.Task) (model.Verdict, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.rpc.Evaluate(ctx, server.TaskRequest("", task))
	if err != nil {
		return model.Verdict{}, fmt.Errorf("remote audit: %w", err)
	}
	return server.VerdictFromStruct(resp), nil
}

// Dispatch runs a named operation on the remote server's planner.
func (c *Client) Dispatch(ctx context.Context, operation string, task model.Task) (model.Outcome[string], error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.rpc.Dispatch(ctx, server.TaskRequest(operation, task))
	if err != nil {
		return model.Outcome[string]{}, fmt.Errorf("remote dispatch: %w", err)
	}
	return server.OutcomeFromStruct(resp), nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

package cli

import (
	"context"
	"strings"

	"github.com/ppiankov/auditgate/internal/agent"
	"github.com/ppiankov/auditgate/internal/client"
	"github.com/ppiankov/auditgate/internal/engine"
	"github.com/ppiankov/auditgate/internal/gate"
	"github.com/ppiankov/auditgate/internal/model"
)

// taskFromArgs joins args into a description under the named principle.
func taskFromArgs(args []string, principle, id string) (model.Task, error) {
	p, err := model.ParsePrinciple(principle)
	if err != nil {
		return model.Task{}, err
	}
	task := model.NewTask(strings.Join(args, " "), p)
	if id != "" {
		task.ID = id
	}
	return task, nil
}

// auditTarget is either a local engine or a remote gRPC server.
type auditTarget interface {
	Check(ctx context.Context, task model.Task) (model.Verdict, error)
	Dispatch(ctx context.Context, operation string, task model.Task) (model.Outcome[string], error)
	Close() error
}

func openTarget(remote, policyPath, agentName string) (auditTarget, error) {
	if remote != "" {
		c, err := client.New(remote)
		if err != nil {
			return nil, err
		}
		return remoteTarget{c}, nil
	}

	eng, err := engine.Load(engine.Config{
		PolicyPath: policyPath,
		AgentName:  agentName,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return localTarget{eng}, nil
}

type localTarget struct {
	eng *engine.Engine
}

func (l localTarget) Check(ctx context.Context, task model.Task) (model.Verdict, error) {
	return l.eng.Check(ctx, task), nil
}

func (l localTarget) Dispatch(ctx context.Context, operation string, task model.Task) (model.Outcome[string], error) {
	return l.eng.Dispatch(ctx, operation, task)
}

func (l localTarget) Close() error {
	l.eng.Alerts.Wait()
	return nil
}

// openDelegated runs the planner locally but audits every task on the
// server at addr.
func openDelegated(addr, agentName string) (auditTarget, error) {
	c, err := client.New(addr)
	if err != nil {
		return nil, err
	}
	planner := &agent.Planner{Name: agentName, Logger: logger}
	ops, err := planner.Operations(c, gate.WithLogger(logger))
	if err != nil {
		c.Close()
		return nil, err
	}
	return delegatedTarget{Client: c, ops: ops}, nil
}

type delegatedTarget struct {
	*client.Client
	ops *gate.Operations[string]
}

func (d delegatedTarget) Check(ctx context.Context, task model.Task) (model.Verdict, error) {
	return d.Evaluate(ctx, task)
}

func (d delegatedTarget) Dispatch(ctx context.Context, operation string, task model.Task) (model.Outcome[string], error) {
	return d.ops.Dispatch(ctx, operation, task)
}

type remoteTarget struct {
	*client.Client
}

func (r remoteTarget) Check(ctx context.Context, task model.Task) (model.Verdict, error) {
	return r.Evaluate(ctx, task)
}

package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/auditgate/internal/engine"
	"github.com/ppiankov/auditgate/internal/model"
)

// TaskInput defines the task fields shared by check and dispatch.
type TaskInput struct {
	Description string `json:"description" jsonschema:"what the agent intends to do"`
	Principle   string `json:"principle" jsonschema:"governing principle (non_harm/efficiency/truthfulness)"`
	ID          string `json:"id,omitempty" jsonschema:"task identifier, generated when omitted"`
}

// CheckOutput contains the audit verdict.
type CheckOutput struct {
	TaskID    string `json:"task_id"`
	Compliant bool   `json:"compliant"`
	Reason    string `json:"reason,omitempty"`
	Principle string `json:"principle,omitempty"`
}

// DispatchInput defines parameters for the auditgate_dispatch tool.
type DispatchInput struct {
	Operation   string `json:"operation,omitempty" jsonschema:"operation name (execute_task/plan), defaults to execute_task"`
	Description string `json:"description" jsonschema:"what the agent intends to do"`
	Principle   string `json:"principle" jsonschema:"governing principle (non_harm/efficiency/truthfulness)"`
	ID          string `json:"id,omitempty" jsonschema:"task identifier, generated when omitted"`
}

// DispatchOutput contains the outcome of a dispatched task.
type DispatchOutput struct {
	TaskID    string `json:"task_id"`
	Operation string `json:"operation"`
	Status    string `json:"status"`
	Value     string `json:"value,omitempty"`
	Blocked   bool   `json:"blocked,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// PrinciplesInput takes no parameters.
type PrinciplesInput struct{}

// PrinciplesOutput lists the configured principles.
type PrinciplesOutput struct {
	Principles []PrincipleEntry `json:"principles"`
}

// PrincipleEntry is one principle with its mandate.
type PrincipleEntry struct {
	Name    string   `json:"name"`
	Mandate string   `json:"mandate"`
	Terms   []string `json:"terms,omitempty"`
}

func (in TaskInput) task() (model.Task, error) {
	principle, err := model.ParsePrinciple(in.Principle)
	if err != nil {
		return model.Task{}, err
	}
	task := model.NewTask(in.Description, principle)
	if in.ID != "" {
		task.ID = in.ID
	}
	return task, nil
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input TaskInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	task, err := input.task()
	if err != nil {
		return nil, CheckOutput{}, err
	}

	v := s.eng.Check(ctx, task)
	principle := v.Principle
	if principle == "" {
		principle = task.Principle
	}
	return nil, CheckOutput{
		TaskID:    task.ID,
		Compliant: v.Compliant,
		Reason:    v.Reason,
		Principle: string(principle),
	}, nil
}

func (s *Server) handleDispatch(ctx context.Context, req *mcpsdk.CallToolRequest, input DispatchInput) (*mcpsdk.CallToolResult, DispatchOutput, error) {
	task, err := TaskInput{Description: input.Description, Principle: input.Principle, ID: input.ID}.task()
	if err != nil {
		return nil, DispatchOutput{}, err
	}
	operation := input.Operation
	if operation == "" {
		operation = engine.DefaultOperation
	}

	out, err := s.eng.Dispatch(ctx, operation, task)
	if err != nil {
		return nil, DispatchOutput{}, fmt.Errorf("dispatch %s: %w", operation, err)
	}

	result := DispatchOutput{
		TaskID:    task.ID,
		Operation: operation,
		Status:    string(out.Status),
		Value:     out.Value,
		Blocked:   out.IsBlocked(),
		Reason:    out.Reason,
		Detail:    out.Detail,
	}
	if out.IsBlocked() {
		return &mcpsdk.CallToolResult{IsError: true}, result, nil
	}
	return nil, result, nil
}

func (s *Server) handlePrinciples(ctx context.Context, req *mcpsdk.CallToolRequest, input PrinciplesInput) (*mcpsdk.CallToolResult, PrinciplesOutput, error) {
	var out PrinciplesOutput
	for _, p := range s.eng.Policy.Principles() {
		out.Principles = append(out.Principles, PrincipleEntry{
			Name:    string(p.Principle),
			Mandate: p.Mandate,
			Terms:   p.Terms,
		})
	}
	return nil, out, nil
}

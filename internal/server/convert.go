package server

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/auditgate/internal/model"
)

// TaskRequest builds the request struct for Evaluate and Dispatch.
func TaskRequest(operation string, task model.Task) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"id":          structpb.NewStringValue(task.ID),
		"description": structpb.NewStringValue(task.Description),
		"principle":   structpb.NewStringValue(string(task.Principle)),
	}
	if operation != "" {
		fields["operation"] = structpb.NewStringValue(operation)
	}
	return &structpb.Struct{Fields: fields}
}

// taskFromStruct parses a request. A missing id gets a fresh one; a missing
// or unknown principle is an error.
func taskFromStruct(in *structpb.Struct) (model.Task, error) {
	if in == nil {
		return model.Task{}, fmt.Errorf("missing request")
	}
	principle, err := model.ParsePrinciple(stringField(in, "principle"))
	if err != nil {
		return model.Task{}, err
	}
	task := model.NewTask(stringField(in, "description"), principle)
	if id := stringField(in, "id"); id != "" {
		task.ID = id
	}
	return task, nil
}

func verdictToStruct(task model.Task, v model.Verdict, policyHash string) *structpb.Struct {
	principle := v.Principle
	if principle == "" {
		principle = task.Principle
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"task_id":     structpb.NewStringValue(task.ID),
		"compliant":   structpb.NewBoolValue(v.Compliant),
		"reason":      structpb.NewStringValue(v.Reason),
		"principle":   structpb.NewStringValue(string(principle)),
		"policy_hash": structpb.NewStringValue(policyHash),
	}}
}

func outcomeToStruct(operation string, task model.Task, out model.Outcome[string], policyHash string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"task_id":     structpb.NewStringValue(task.ID),
		"operation":   structpb.NewStringValue(operation),
		"status":      structpb.NewStringValue(string(out.Status)),
		"value":       structpb.NewStringValue(out.Value),
		"reason":      structpb.NewStringValue(out.Reason),
		"detail":      structpb.NewStringValue(out.Detail),
		"policy_hash": structpb.NewStringValue(policyHash),
	}}
}

// OutcomeFromStruct decodes a Dispatch response.
func OutcomeFromStruct(s *structpb.Struct) model.Outcome[string] {
	return model.Outcome[string]{
		Status: model.Status(stringField(s, "status")),
		Value:  stringField(s, "value"),
		Reason: stringField(s, "reason"),
		Detail: stringField(s, "detail"),
	}
}

// VerdictFromStruct decodes an Evaluate response.
func VerdictFromStruct(s *structpb.Struct) model.Verdict {
	return model.Verdict{
		Compliant: s.GetFields()["compliant"].GetBoolValue(),
		Reason:    stringField(s, "reason"),
		Principle: model.Principle(stringField(s, "principle")),
	}
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

const (
	DefaultMaxSubtasks = 10
	MinMaxSubtasks     = 1
	MaxMaxSubtasks     = 20

	paramTask        = "task"
	paramMaxSubtasks = "maxSubtasks"
)

// CreatePlanArgs are the arguments of planning.create_plan. A zero
// MaxSubtasks selects DefaultMaxSubtasks.
type CreatePlanArgs struct {
	Task        string `json:"task"`
	MaxSubtasks int    `json:"maxSubtasks,omitempty"`
}

func (a CreatePlanArgs) normalized() (CreatePlanArgs, error) {
	if strings.TrimSpace(a.Task) == "" {
		return a, fmt.Errorf("%w: task is required", contractx.ErrValidation)
	}
	if a.MaxSubtasks == 0 {
		a.MaxSubtasks = DefaultMaxSubtasks
	}
	if a.MaxSubtasks < MinMaxSubtasks || a.MaxSubtasks > MaxMaxSubtasks {
		return a, fmt.Errorf("%w: maxSubtasks=%d must be within %d..%d",
			contractx.ErrValidation, a.MaxSubtasks, MinMaxSubtasks, MaxMaxSubtasks)
	}
	return a, nil
}

func createPlanParamsSchema() *openapi3.Schema {
	task := openapi3.NewStringSchema().WithMinLength(1)
	task.Description = "The high-level task or project to break down."

	maxSubtasks := openapi3.NewIntegerSchema().
		WithMin(MinMaxSubtasks).
		WithMax(MaxMaxSubtasks)
	maxSubtasks.Default = DefaultMaxSubtasks
	maxSubtasks.Description = "Maximum number of subtasks to generate"

	params := openapi3.NewObjectSchema().
		WithProperty(paramTask, task).
		WithProperty(paramMaxSubtasks, maxSubtasks)
	params.Required = []string{paramTask}
	return params
}

// ParseArgs validates JSON arguments against the parameter schema and applies
// defaults. Arguments are read from the validated map, so integral floats such
// as 5.0 are accepted.
func ParseArgs(argumentsInJSON string) (CreatePlanArgs, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(argumentsInJSON), &raw); err != nil {
		return CreatePlanArgs{}, fmt.Errorf("%w: decode arguments: %v", contractx.ErrValidation, err)
	}
	if raw == nil {
		return CreatePlanArgs{}, fmt.Errorf("%w: arguments must be an object", contractx.ErrValidation)
	}

	if err := createPlanParamsSchema().VisitJSON(raw); err != nil {
		return CreatePlanArgs{}, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	var args CreatePlanArgs
	if task, ok := raw[paramTask].(string); ok {
		args.Task = task
	}
	if maxSubtasks, ok := raw[paramMaxSubtasks].(float64); ok {
		args.MaxSubtasks = int(maxSubtasks)
	}
	return args.normalized()
}

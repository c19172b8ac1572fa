package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

type Executor func(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error)

func BuildCatalog(ctx context.Context, planner *PlanCreationTool) ([]*schema.ToolInfo, Executor, error) {
	infos, err := infosFor(ctx, planner)
	if err != nil {
		return nil, nil, err
	}
	return infos, NewExecutor(planner), nil
}

func NewExecutor(planner *PlanCreationTool) Executor {
	fallback := DefaultExecutor()
	return func(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
		switch {
		case req.Tool == ToolCreatePlan && planner != nil:
			return executePlanTool(ctx, planner, req)
		default:
			return fallback(ctx, req)
		}
	}
}

func DefaultExecutor() Executor {
	return func(_ context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("tool=%s is unavailable", req.Tool),
		}, nil
	}
}

// executePlanTool maps tool failures into ToolResult.Error. The returned error
// is reserved for failures to run the tool at all.
func executePlanTool(ctx context.Context, planner *PlanCreationTool, req contractx.ToolRequest) (contractx.ToolResult, error) {
	args := req.Args
	if args == nil {
		args = map[string]any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("encode %s arguments: %w", req.Tool, err)
	}

	out, err := planner.InvokableRun(ctx, string(encoded))
	if err != nil {
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: err.Error(),
		}, nil
	}

	return contractx.ToolResult{
		Tool:   req.Tool,
		Result: json.RawMessage(out),
	}, nil
}

func infosFor(ctx context.Context, planner *PlanCreationTool) ([]*schema.ToolInfo, error) {
	if planner == nil {
		return nil, nil
	}
	info, err := planner.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe tool %s: %w", planner.Name(), err)
	}
	return []*schema.ToolInfo{info}, nil
}

package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

var (
	//go:embed template/planner_system.txt
	plannerSystemRaw string

	//go:embed template/planner_user.txt
	plannerUserRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	PlannerSystem string
	PlannerUser   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		PlannerSystem: strings.TrimSpace(plannerSystemRaw),
		PlannerUser:   strings.TrimSpace(plannerUserRaw),
	}
}

// PlannerMessages formats the planner conversation for task. The task text is
// a template variable, so braces inside it are kept verbatim.
func (p PromptSet) PlannerMessages(ctx context.Context, task string) ([]contractx.Message, error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(p.PlannerSystem),
		schema.UserMessage(p.PlannerUser),
	)

	msgs, err := template.Format(ctx, map[string]any{"task": task})
	if err != nil {
		return nil, fmt.Errorf("format planner prompt: %w", err)
	}

	out := make([]contractx.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, contractx.Message{
			Role:    contractx.Role(m.Role),
			Content: m.Content,
		})
	}
	return out, nil
}

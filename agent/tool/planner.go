package tool

import (
	"context"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
	planx "github.com/tanpawarit/task-planner/agent/plan"
	promptx "github.com/tanpawarit/task-planner/agent/prompt"
)

const (
	ToolCreatePlan        = "planning.create_plan"
	createPlanDescription = "Breaks a user-provided task into a numbered list of atomic subtasks."

	planKeyPrefix = "Current Task Plan for "
)

var _ einotool.InvokableTool = (*PlanCreationTool)(nil)

// PlanCreationTool asks a chat+reasoning model for a task plan and records the
// subtasks as attention items under PlanKey(task).
type PlanCreationTool struct {
	memory  contractx.MemoryService
	models  contractx.ModelRegistry
	prompts promptx.PromptSet
}

// NewPlanCreationTool accepts nil collaborators; Execute reports them as
// missing services.
func NewPlanCreationTool(memory contractx.MemoryService, models contractx.ModelRegistry) *PlanCreationTool {
	return &PlanCreationTool{
		memory:  memory,
		models:  models,
		prompts: promptx.LoadPromptSet(),
	}
}

func PlanKey(task string) string {
	return planKeyPrefix + task
}

func (t *PlanCreationTool) Name() string { return ToolCreatePlan }

func (t *PlanCreationTool) Description() string { return createPlanDescription }

func (t *PlanCreationTool) ParametersSchema() *openapi3.Schema {
	return createPlanParamsSchema()
}

// Info shares the parameter schema used by InvokableRun, bounds included.
func (t *PlanCreationTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        ToolCreatePlan,
		Desc:        createPlanDescription,
		ParamsOneOf: schema.NewParamsOneOfByOpenAPIV3(createPlanParamsSchema()),
	}, nil
}

func (t *PlanCreationTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	args, err := ParseArgs(argumentsInJSON)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ToolCreatePlan, err)
	}
	return t.Execute(ctx, args)
}

// Execute returns the plan as pretty JSON text, or "null" when the model
// produced nothing decodable. Every error is prefixed with the tool name.
func (t *PlanCreationTool) Execute(ctx context.Context, args CreatePlanArgs) (string, error) {
	out, err := t.execute(ctx, args)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ToolCreatePlan, err)
	}
	return out, nil
}

func (t *PlanCreationTool) execute(ctx context.Context, args CreatePlanArgs) (string, error) {
	args, err := args.normalized()
	if err != nil {
		return "", err
	}

	memory, models, err := t.services()
	if err != nil {
		return "", err
	}

	client, err := models.FirstOnlineClient(ctx, contractx.ClientFilter{
		Tags: []string{contractx.TagChat, contractx.TagReasoning},
	})
	if err != nil {
		return "", err
	}
	log.Debug().Str("client", client.Name()).Msg("planner: client selected")

	planSchema, err := planx.TaskPlanSchemaJSON(args.MaxSubtasks)
	if err != nil {
		return "", err
	}

	messages, err := t.prompts.PlannerMessages(ctx, args.Task)
	if err != nil {
		return "", err
	}

	generated, err := client.GenerateObject(ctx, contractx.ObjectRequest{
		Messages:   messages,
		SchemaName: planx.SchemaName,
		Schema:     planSchema,
	})
	if err != nil {
		return "", err
	}

	result := planx.Decode(generated.Object)
	if result.Kind != planx.KindValid {
		log.Warn().
			Err(result.Violation()).
			Str("kind", result.Kind.String()).
			Str("client", client.Name()).
			Msg("planner: no usable plan, skipping attention items")
		return planx.Render(result), nil
	}

	if err := recordPlan(ctx, memory, PlanKey(args.Task), result.Subtasks, args.MaxSubtasks); err != nil {
		return "", err
	}
	return planx.Render(result), nil
}

func (t *PlanCreationTool) services() (contractx.MemoryService, contractx.ModelRegistry, error) {
	if t == nil || t.memory == nil {
		return nil, nil, fmt.Errorf("%w: memory", contractx.ErrServiceNotFound)
	}
	if t.models == nil {
		return nil, nil, fmt.Errorf("%w: model registry", contractx.ErrServiceNotFound)
	}
	return t.memory, t.models, nil
}

// recordPlan appends every subtask then keeps the first maxSubtasks items of
// the key.
func recordPlan(ctx context.Context, memory contractx.MemoryService, key string, subtasks []string, maxSubtasks int) error {
	for _, subtask := range subtasks {
		if err := memory.PushAttentionItem(ctx, key, subtask); err != nil {
			return err
		}
	}
	if err := memory.SpliceAttentionItems(ctx, key, 0, maxSubtasks); err != nil {
		return err
	}
	log.Debug().
		Str("key", key).
		Int("subtasks", len(subtasks)).
		Int("max_subtasks", maxSubtasks).
		Msg("planner: subtasks recorded")
	return nil
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

var _ contractx.ChatClient = (*StructuredClient)(nil)

// StructuredClient asks one chat model for a JSON object and decodes it.
type StructuredClient struct {
	name   string
	runner compose.Runnable[map[string]any, json.RawMessage]
}

func NewStructuredClient(ctx context.Context, name string, chatModel einomodel.BaseChatModel) (*StructuredClient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: client name is required", contractx.ErrValidation)
	}
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required for client=%s", contractx.ErrValidation, name)
	}

	runner, err := compileObjectGraph(ctx, chatModel, "llm.object_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile object graph for client=%s: %v", contractx.ErrModelInvoke, name, err)
	}
	return &StructuredClient{name: name, runner: runner}, nil
}

func (c *StructuredClient) Name() string {
	return c.name
}

// GenerateObject returns a nil Object, not an error, when the model answered
// with something that is not JSON.
func (c *StructuredClient) GenerateObject(ctx context.Context, req contractx.ObjectRequest) (contractx.ObjectResult, error) {
	if len(req.Messages) == 0 {
		return contractx.ObjectResult{}, fmt.Errorf("%w: at least one message is required", contractx.ErrValidation)
	}
	if len(req.Schema) == 0 {
		return contractx.ObjectResult{}, fmt.Errorf("%w: response schema is required", contractx.ErrValidation)
	}

	out, err := c.runner.Invoke(ctx, templateVariables(req))
	if err != nil {
		return contractx.ObjectResult{}, fmt.Errorf("%w: client=%s: %v", contractx.ErrModelInvoke, c.name, err)
	}

	return contractx.ObjectResult{
		Object: out,
		Model:  c.name,
	}, nil
}

const (
	varSystem       = "system"
	varSchemaName   = "schema_name"
	varSchema       = "schema"
	varConversation = "conversation"

	objectInstruction = "{system}Respond with a single JSON object that follows the {schema_name} JSON schema below. Do not wrap it in Markdown.\n{schema}"
)

func compileObjectGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	graphName string,
) (compose.Runnable[map[string]any, json.RawMessage], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(objectInstruction),
		schema.MessagesPlaceholder(varConversation, false),
	)

	graph := compose.NewGraph[map[string]any, json.RawMessage]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add object prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add object model node: %w", err)
	}
	if err := graph.AddLambdaNode("decode_object", compose.InvokableLambda(newObjectDecoder())); err != nil {
		return nil, fmt.Errorf("add object decode node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "decode_object"},
		{"decode_object", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add object edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile object graph: %w", err)
	}
	return runner, nil
}

// newObjectDecoder parses the model reply as JSON. A reply that does not parse
// yields a nil object rather than an error.
func newObjectDecoder() func(ctx context.Context, msg *schema.Message) (json.RawMessage, error) {
	parser := schema.NewMessageJSONParser[json.RawMessage](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	return func(ctx context.Context, msg *schema.Message) (json.RawMessage, error) {
		if msg == nil {
			return nil, nil
		}
		unfenced := &schema.Message{
			Role:    msg.Role,
			Content: stripCodeFence(msg.Content),
		}
		obj, err := parser.Parse(ctx, unfenced)
		if err != nil {
			log.Warn().Err(err).Int("content_len", len(msg.Content)).Msg("llm: model output is not JSON, dropping object")
			return nil, nil
		}
		return obj, nil
	}
}

// stripCodeFence removes a surrounding Markdown code fence, if any.
func stripCodeFence(content string) string {
	text := strings.TrimSpace(content)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

// templateVariables feeds leading system messages into the instruction
// message and the rest of the request into the conversation placeholder.
func templateVariables(req contractx.ObjectRequest) map[string]any {
	var system []string
	conversation := make([]*schema.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == contractx.RoleSystem && len(conversation) == 0 {
			system = append(system, m.Content)
			continue
		}
		conversation = append(conversation, &schema.Message{
			Role:    toRoleType(m.Role),
			Content: m.Content,
		})
	}

	systemText := strings.Join(system, "\n\n")
	if systemText != "" {
		systemText += "\n\n"
	}
	name := strings.TrimSpace(req.SchemaName)
	if name == "" {
		name = "response"
	}

	return map[string]any{
		varSystem:       systemText,
		varSchemaName:   name,
		varSchema:       string(req.Schema),
		varConversation: conversation,
	}
}

func toRoleType(role contractx.Role) schema.RoleType {
	switch role {
	case contractx.RoleSystem:
		return schema.System
	case contractx.RoleAssistant:
		return schema.Assistant
	default:
		return schema.User
	}
}

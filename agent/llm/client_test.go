package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

type fakeChatModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func planRequest() contractx.ObjectRequest {
	return contractx.ObjectRequest{
		Messages: []contractx.Message{
			{Role: contractx.RoleSystem, Content: "You are an expert planner."},
			{Role: contractx.RoleUser, Content: `Task: "ship it".`},
		},
		SchemaName: "TaskPlan",
		Schema:     json.RawMessage(`{"type":"object"}`),
	}
}

func TestGenerateObjectDecodesJSON(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{
			{Role: schema.Assistant, Content: `{"subtasks":["a","b"]}`},
		},
	}
	client, err := NewStructuredClient(context.Background(), "openai/o4-mini", fake)
	if err != nil {
		t.Fatalf("NewStructuredClient() error = %v", err)
	}

	out, err := client.GenerateObject(context.Background(), planRequest())
	if err != nil {
		t.Fatalf("GenerateObject() error = %v", err)
	}
	if string(out.Object) != `{"subtasks":["a","b"]}` {
		t.Fatalf("unexpected object: %s", out.Object)
	}
	if out.Model != "openai/o4-mini" {
		t.Fatalf("unexpected model: %s", out.Model)
	}

	if len(fake.inputs) != 1 || len(fake.inputs[0]) != 2 {
		t.Fatalf("unexpected model input: %#v", fake.inputs)
	}
	system := fake.inputs[0][0]
	if system.Role != schema.System {
		t.Fatalf("first message role = %s, want system", system.Role)
	}
	if !strings.Contains(system.Content, "TaskPlan") || !strings.Contains(system.Content, `{"type":"object"}`) {
		t.Fatalf("system message lacks schema instruction: %q", system.Content)
	}
	if fake.inputs[0][1].Role != schema.User {
		t.Fatalf("second message role = %s, want user", fake.inputs[0][1].Role)
	}
}

func TestGenerateObjectStripsFence(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{
			{Role: schema.Assistant, Content: "```json\n{\"subtasks\":[\"a\"]}\n```"},
		},
	}
	client, err := NewStructuredClient(context.Background(), "m1", fake)
	if err != nil {
		t.Fatalf("NewStructuredClient() error = %v", err)
	}

	out, err := client.GenerateObject(context.Background(), planRequest())
	if err != nil {
		t.Fatalf("GenerateObject() error = %v", err)
	}
	if string(out.Object) != `{"subtasks":["a"]}` {
		t.Fatalf("unexpected object: %s", out.Object)
	}
}

func TestGenerateObjectUndecodableIsNil(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{
			{Role: schema.Assistant, Content: "Sure! First, outline the post."},
		},
	}
	client, err := NewStructuredClient(context.Background(), "m1", fake)
	if err != nil {
		t.Fatalf("NewStructuredClient() error = %v", err)
	}

	out, err := client.GenerateObject(context.Background(), planRequest())
	if err != nil {
		t.Fatalf("GenerateObject() error = %v", err)
	}
	if out.Object != nil {
		t.Fatalf("expected nil object, got %s", out.Object)
	}
}

func TestGenerateObjectModelError(t *testing.T) {
	t.Parallel()

	client, err := NewStructuredClient(context.Background(), "m1", &fakeChatModel{err: errors.New("rate limited")})
	if err != nil {
		t.Fatalf("NewStructuredClient() error = %v", err)
	}

	_, err = client.GenerateObject(context.Background(), planRequest())
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("GenerateObject() error = %v, want ErrModelInvoke", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error lost model message: %v", err)
	}
}

func TestGenerateObjectRequiresMessages(t *testing.T) {
	t.Parallel()

	client, err := NewStructuredClient(context.Background(), "m1", &fakeChatModel{})
	if err != nil {
		t.Fatalf("NewStructuredClient() error = %v", err)
	}
	if _, err := client.GenerateObject(context.Background(), contractx.ObjectRequest{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("GenerateObject() error = %v, want ErrValidation", err)
	}
}

func TestGenerateObjectRequiresSchema(t *testing.T) {
	t.Parallel()

	client, err := NewStructuredClient(context.Background(), "m1", &fakeChatModel{})
	if err != nil {
		t.Fatalf("NewStructuredClient() error = %v", err)
	}
	req := planRequest()
	req.Schema = nil
	if _, err := client.GenerateObject(context.Background(), req); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("GenerateObject() error = %v, want ErrValidation", err)
	}
}

func TestGenerateObjectWithoutSystemMessage(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{{Role: schema.Assistant, Content: `{"subtasks":[]}`}},
	}
	client, err := NewStructuredClient(context.Background(), "m1", fake)
	if err != nil {
		t.Fatalf("NewStructuredClient() error = %v", err)
	}

	_, err = client.GenerateObject(context.Background(), contractx.ObjectRequest{
		Messages: []contractx.Message{{Role: contractx.RoleUser, Content: "Plan a {launch} party"}},
		Schema:   json.RawMessage(`{"type":"object","properties":{}}`),
	})
	if err != nil {
		t.Fatalf("GenerateObject() error = %v", err)
	}

	input := fake.inputs[0]
	if len(input) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(input))
	}
	if !strings.HasPrefix(input[0].Content, "Respond with a single JSON object that follows the response JSON schema") {
		t.Fatalf("unexpected instruction message: %q", input[0].Content)
	}
	if !strings.Contains(input[0].Content, `{"type":"object","properties":{}}`) {
		t.Fatalf("schema not embedded verbatim: %q", input[0].Content)
	}
	if input[1].Role != schema.User || input[1].Content != "Plan a {launch} party" {
		t.Fatalf("unexpected user message: %#v", input[1])
	}
}

func TestGenerateObjectProseAroundJSONIsNil(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		responses: []*schema.Message{
			{Role: schema.Assistant, Content: `Here is the plan: {"subtasks":["a"]} done.`},
		},
	}
	client, err := NewStructuredClient(context.Background(), "m1", fake)
	if err != nil {
		t.Fatalf("NewStructuredClient() error = %v", err)
	}

	out, err := client.GenerateObject(context.Background(), planRequest())
	if err != nil {
		t.Fatalf("GenerateObject() error = %v", err)
	}
	if out.Object != nil {
		t.Fatalf("expected nil object, got %s", out.Object)
	}
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"  {\"a\":1}\n":           `{"a":1}`,
		"not json":                "not json",
	}
	for in, want := range cases {
		if got := stripCodeFence(in); got != want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

package contract

import "encoding/json"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	TagChat      = "chat"
	TagReasoning = "reasoning"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ObjectRequest struct {
	Messages   []Message       `json:"messages"`
	SchemaName string          `json:"schema_name,omitempty"`
	Schema     json.RawMessage `json:"schema,omitempty"`
}

// ObjectResult carries the decoded model object. Object is nil when the model
// output could not be decoded as JSON.
type ObjectResult struct {
	Object json.RawMessage `json:"object,omitempty"`
	Model  string          `json:"model,omitempty"`
}

type ClientFilter struct {
	Tags []string `json:"tags,omitempty"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

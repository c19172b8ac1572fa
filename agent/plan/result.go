package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

type Kind int

const (
	KindAbsent Kind = iota
	KindValid
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindValid:
		return "valid"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result is the decoded model output. Subtasks is only set for KindValid;
// Raw keeps the original object for every kind except KindAbsent.
type Result struct {
	Kind     Kind
	Subtasks []string
	Raw      json.RawMessage
}

var renderOptions = &pretty.Options{
	Indent:   "  ",
	SortKeys: false,
}

// Decode checks only that the object carries a "subtasks" array. Entries are
// coerced to text and kept in order; nothing else about the object is checked.
func Decode(raw json.RawMessage) Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Result{Kind: KindAbsent}
	}
	if !gjson.ValidBytes(trimmed) {
		return Result{Kind: KindMalformed, Raw: trimmed}
	}

	subtasks := lastField(gjson.ParseBytes(trimmed), "subtasks")
	if !subtasks.IsArray() {
		return Result{Kind: KindMalformed, Raw: trimmed}
	}

	entries := subtasks.Array()
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, subtaskText(entry))
	}

	return Result{
		Kind:     KindValid,
		Subtasks: out,
		Raw:      trimmed,
	}
}

// Violation describes why a malformed result was rejected. It is nil for
// valid and absent results.
func (r Result) Violation() error {
	if r.Kind != KindMalformed {
		return nil
	}
	if !gjson.ValidBytes(r.Raw) {
		return fmt.Errorf("%w: object is not valid JSON", contractx.ErrSchemaViolation)
	}
	return fmt.Errorf("%w: subtasks is not an array", contractx.ErrSchemaViolation)
}

// lastField returns the last occurrence of key in obj, so duplicate keys
// resolve the same way encoding/json does.
func lastField(obj gjson.Result, key string) gjson.Result {
	var found gjson.Result
	if !obj.IsObject() {
		return found
	}
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			found = v
		}
		return true
	})
	return found
}

// Render serializes the result as two-space indented JSON text, or "null"
// when no object was produced.
func Render(r Result) string {
	if r.Kind == KindAbsent || len(r.Raw) == 0 {
		return "null"
	}
	if !gjson.ValidBytes(r.Raw) {
		quoted, _ := json.Marshal(string(r.Raw))
		return string(quoted)
	}
	return strings.TrimRight(string(pretty.PrettyOptions(r.Raw, renderOptions)), "\n")
}

func subtaskText(entry gjson.Result) string {
	switch entry.Type {
	case gjson.String:
		return entry.Str
	case gjson.Null:
		return "null"
	default:
		return entry.Raw
	}
}

package plan

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	SchemaName         = "TaskPlan"
	SubtaskDescription = "A clear, atomic subtask"
)

// TaskPlanSchema describes the object the model is asked to produce: a
// non-empty array of subtask strings capped at maxSubtasks.
func TaskPlanSchema(maxSubtasks int) *openapi3.Schema {
	item := openapi3.NewStringSchema()
	item.Description = SubtaskDescription

	subtasks := openapi3.NewArraySchema().
		WithItems(item).
		WithMinItems(1).
		WithMaxItems(int64(maxSubtasks))

	return openapi3.NewObjectSchema().WithProperty("subtasks", subtasks)
}

func TaskPlanSchemaJSON(maxSubtasks int) (json.RawMessage, error) {
	raw, err := json.Marshal(TaskPlanSchema(maxSubtasks))
	if err != nil {
		return nil, fmt.Errorf("marshal task plan schema: %w", err)
	}
	return raw, nil
}

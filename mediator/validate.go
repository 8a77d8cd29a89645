package mediator

import (
	"encoding/json"
	"fmt"

	"github.com/meshflow/mediator/model"
)

// validateEventPayload decodes body into the EventPayload wire schema
// (§6) and checks the one structural requirement JSON decoding alone
// doesn't enforce: a non-empty workflow_id. json.Unmarshal already rejects
// a non-object "output", a non-boolean "success", and a non-ISO-8601
// "timestamp" by virtue of time.Time's own UnmarshalJSON.
func validateEventPayload(body []byte, out *model.EventPayload) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid event payload: %w", err)
	}
	if out.WorkflowID == "" {
		return fmt.Errorf("invalid event payload: missing workflow_id")
	}
	return nil
}

package tool

import "fmt"

// Result carries the outcome of a single tool execution. Output and Error are
// both surfaced to the model as the observation for the call; Base64Image
// carries an optional screenshot captured during execution.
type Result struct {
	Output      string `json:"output,omitempty"`
	Error       string `json:"error,omitempty"`
	Base64Image string `json:"base64_image,omitempty"`
}

// Failed reports whether the execution produced an error.
func (r *Result) Failed() bool {
	return r != nil && r.Error != ""
}

// String renders the result the way it is shown to the model.
func (r *Result) String() string {
	if r == nil {
		return ""
	}

	if r.Error != "" {
		return fmt.Sprintf("Error: %s", r.Error)
	}

	return r.Output
}

// CallRecord captures one entry of a tool batch execution. Records preserve
// the order of the originating tool calls regardless of individual failures.
type CallRecord struct {
	CallID      string `json:"call_id"`
	Name        string `json:"name"`
	Content     string `json:"content"`
	Base64Image string `json:"base64_image,omitempty"`
	Success     bool   `json:"success"`

	// AgentID identifies the delegated remote party for invocations that
	// were carried out by another agent, empty otherwise.
	AgentID string `json:"agent_id,omitempty"`
}

package model

import (
	"maps"

	"github.com/cloudwego/eino/schema"
)

// Stage names the two states of one routed invocation.
type Stage string

const (
	StageAwaitingClassification Stage = "awaiting_classification"
	StageDispatched             Stage = "dispatched"
)

func (s Stage) String() string {
	return string(s)
}

// Request is the user input submitted to a pipeline. Handlers treat it as
// read-only; use the accessors to get private copies.
type Request struct {
	Text string `json:"text"`
	// History carries prior turns for stateful handlers. It is supplied by the
	// caller for every request and never retained by the pipeline.
	History []*schema.Message `json:"history,omitempty"`
	// Vars supplies extra template values beyond the request text.
	Vars map[string]any `json:"vars,omitempty"`
}

// NewRequest builds a Request carrying only text.
func NewRequest(text string) Request {
	return Request{Text: text}
}

// HistoryCopy returns a copy of the message slice.
func (r Request) HistoryCopy() []*schema.Message {
	if len(r.History) == 0 {
		return nil
	}
	out := make([]*schema.Message, len(r.History))
	copy(out, r.History)
	return out
}

// VarsCopy returns a copy of the variable map, never nil.
func (r Request) VarsCopy() map[string]any {
	out := make(map[string]any, len(r.Vars)+2)
	maps.Copy(out, r.Vars)
	return out
}

// Result describes which branch answered a routed request.
type Result struct {
	Response string `json:"response"`
	Label    string `json:"label"`
	Branch   string `json:"branch"`
	// Fallback is set when no predicate matched and the default branch ran.
	Fallback bool `json:"fallback"`
}

// Package fakes provides scripted collaborators for pipeline tests.
package fakes

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel is a scripted model.ToolCallingChatModel. Replies are returned in
// order and the last one repeats; Err, when set, fails every call.
type ChatModel struct {
	mu      sync.Mutex
	replies []*schema.Message
	Err     error
	// Respond, when set, overrides the scripted replies.
	Respond func(ctx context.Context, in []*schema.Message) (*schema.Message, error)

	inputs [][]*schema.Message
	tools  []*schema.ToolInfo
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

// NewChatModel scripts plain assistant replies.
func NewChatModel(replies ...string) *ChatModel {
	m := &ChatModel{}
	for _, r := range replies {
		m.replies = append(m.replies, schema.AssistantMessage(r, nil))
	}
	return m
}

// NewFailingChatModel fails every call with err.
func NewFailingChatModel(err error) *ChatModel {
	return &ChatModel{Err: err}
}

// Script appends scripted messages, e.g. tool-call turns.
func (m *ChatModel) Script(msgs ...*schema.Message) *ChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, msgs...)
	return m
}

func (m *ChatModel) Generate(ctx context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	call := len(m.inputs)
	m.inputs = append(m.inputs, append([]*schema.Message(nil), in...))
	respond, err := m.Respond, m.Err
	var reply *schema.Message
	if len(m.replies) > 0 {
		reply = m.replies[min(call, len(m.replies)-1)]
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if respond != nil {
		return respond(ctx, in)
	}
	if reply == nil {
		return schema.AssistantMessage("", nil), nil
	}
	out := *reply
	return &out, nil
}

func (m *ChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools records the tools and returns the same fake so call counts are shared.
func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = append([]*schema.ToolInfo(nil), tools...)
	return m, nil
}

// Calls returns how many times Generate ran.
func (m *ChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

// Input returns the messages of the i-th call.
func (m *ChatModel) Input(i int) []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.inputs) {
		return nil
	}
	return m.inputs[i]
}

// LastUserText returns the last user message content of the i-th call.
func (m *ChatModel) LastUserText(i int) string {
	in := m.Input(i)
	for j := len(in) - 1; j >= 0; j-- {
		if in[j] != nil && in[j].Role == schema.User {
			return in[j].Content
		}
	}
	return ""
}

// Tools returns the tools bound through WithTools.
func (m *ChatModel) Tools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools
}

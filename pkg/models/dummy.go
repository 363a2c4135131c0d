package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DummyLLM is a lightweight model implementation useful for local testing without API calls.
// It always answers directly and never requests tools.
type DummyLLM struct {
	Prefix string
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

func (d *DummyLLM) Chat(_ context.Context, req Request) (Message, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != RoleUser {
			continue
		}
		if candidate := strings.TrimSpace(req.Messages[i].Content); candidate != "" {
			last = candidate
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	return AssistantMessage(fmt.Sprintf("%s %s", d.Prefix, last)), nil
}

var _ ChatModel = (*DummyLLM)(nil)

// ErrScriptExhausted is returned by ScriptedLLM once every reply was used.
var ErrScriptExhausted = errors.New("scripted model exhausted")

// ScriptedLLM replays a fixed list of assistant messages in order. With Loop
// set it starts over instead of failing when the script runs out.
type ScriptedLLM struct {
	Replies []Message
	Loop    bool

	mu       sync.Mutex
	next     int
	requests []Request
}

func NewScriptedLLM(replies ...Message) *ScriptedLLM {
	return &ScriptedLLM{Replies: replies}
}

func (s *ScriptedLLM) Chat(ctx context.Context, req Request) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := req
	snapshot.Messages = make([]Message, len(req.Messages))
	for i, m := range req.Messages {
		snapshot.Messages[i] = m.Clone()
	}
	s.requests = append(s.requests, snapshot)

	if len(s.Replies) == 0 {
		return Message{}, ErrScriptExhausted
	}
	if s.next >= len(s.Replies) {
		if !s.Loop {
			return Message{}, ErrScriptExhausted
		}
		s.next = 0
	}
	reply := s.Replies[s.next].Clone()
	s.next++
	if reply.Role == "" {
		reply.Role = RoleAssistant
	}
	return reply, nil
}

// Requests returns every request the model has seen, oldest first.
func (s *ScriptedLLM) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

var _ ChatModel = (*ScriptedLLM)(nil)

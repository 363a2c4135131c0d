package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// ---------------------------- Ollama -----------------------------------------

const DefaultOllamaModel = "llama3.1"

type OllamaLLM struct {
	Client   *ollama.Client
	Settings Settings
}

func NewOllamaLLM(settings Settings) (*OllamaLLM, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}

	httpClient := &http.Client{
		Timeout: 120 * time.Second,
	}
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = DefaultOllamaModel
	}

	c := ollama.NewClient(u, httpClient)
	return &OllamaLLM{Client: c, Settings: settings}, nil
}

// ollamaWireCall mirrors the JSON shape Ollama uses for tool calls.
// Requests and replies are converted through JSON.
type ollamaWireCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaWireMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaWireCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

func (o *OllamaLLM) Chat(ctx context.Context, req Request) (Message, error) {
	wire := make([]ollamaWireMessage, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		wire = append(wire, ollamaWireMessage{Role: "system", Content: system})
	}
	for _, msg := range req.Messages {
		wm := ollamaWireMessage{Role: string(msg.Role), Content: msg.Content, ToolName: msg.ToolName}
		for _, call := range msg.ToolCalls {
			var wc ollamaWireCall
			wc.Function.Name = call.Name
			wc.Function.Arguments = call.Arguments
			wm.ToolCalls = append(wm.ToolCalls, wc)
		}
		wire = append(wire, wm)
	}

	var messages []ollama.Message
	if err := roundTrip(wire, &messages); err != nil {
		return Message{}, fmt.Errorf("ollama chat: messages: %w", err)
	}

	var tools ollama.Tools
	if len(req.Tools) > 0 {
		defs := make([]map[string]any, 0, len(req.Tools))
		for _, def := range req.Tools {
			params, err := schemaMap(def.Parameters)
			if err != nil {
				return Message{}, fmt.Errorf("ollama chat: tool %s: %w", def.Name, err)
			}
			defs = append(defs, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        def.Name,
					"description": def.Description,
					"parameters":  params,
				},
			})
		}
		if err := roundTrip(defs, &tools); err != nil {
			return Message{}, fmt.Errorf("ollama chat: tools: %w", err)
		}
	}

	stream := false
	options := map[string]any{"temperature": o.Settings.Temperature}
	if o.Settings.MaxTokens > 0 {
		options["num_predict"] = o.Settings.MaxTokens
	}

	var last ollama.ChatResponse
	err := o.Client.Chat(ctx, &ollama.ChatRequest{
		Model:    o.Settings.Model,
		Messages: messages,
		Tools:    tools,
		Stream:   &stream,
		Options:  options,
	}, func(cr ollama.ChatResponse) error {
		last = cr
		return nil
	})
	if err != nil {
		return Message{}, fmt.Errorf("ollama chat: %w", err)
	}

	var reply ollamaWireMessage
	if err := roundTrip(last.Message, &reply); err != nil {
		return Message{}, fmt.Errorf("ollama chat: decode reply: %w", err)
	}
	calls := make([]ToolCall, 0, len(reply.ToolCalls))
	for _, wc := range reply.ToolCalls {
		args := wc.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		calls = append(calls, ToolCall{ID: NewCallID(), Name: wc.Function.Name, Arguments: args})
	}
	return AssistantMessage(strings.TrimSpace(reply.Content), calls...), nil
}

func roundTrip(in any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

var _ ChatModel = (*OllamaLLM)(nil)

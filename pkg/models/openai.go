package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "gpt-4o-mini"

type OpenAILLM struct {
	Client   *openai.Client
	Settings Settings
}

func NewOpenAILLM(settings Settings) *OpenAILLM {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_KEY") // fallback
	}
	cfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); base != "" {
		cfg.BaseURL = base
	}
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = DefaultOpenAIModel
	}
	return &OpenAILLM{Client: openai.NewClientWithConfig(cfg), Settings: settings}
}

func (o *OpenAILLM) Chat(ctx context.Context, req Request) (Message, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openAIMessage(msg))
	}

	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, def := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  objectSchema(def.Parameters),
			},
		})
	}

	creq := openai.ChatCompletionRequest{
		Model:       o.Settings.Model,
		Messages:    messages,
		Temperature: float32(o.Settings.Temperature),
	}
	if len(tools) > 0 {
		creq.Tools = tools
	}
	if o.Settings.MaxTokens > 0 {
		creq.MaxTokens = o.Settings.MaxTokens
	}

	resp, err := o.Client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return Message{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, errors.New("no response from OpenAI")
	}

	choice := resp.Choices[0].Message
	calls := make([]ToolCall, 0, len(choice.ToolCalls))
	for _, tc := range choice.ToolCalls {
		args, err := decodeArguments([]byte(tc.Function.Arguments))
		if err != nil {
			return Message{}, fmt.Errorf("openai chat: tool %s: %w", tc.Function.Name, err)
		}
		id := tc.ID
		if id == "" {
			id = NewCallID()
		}
		calls = append(calls, ToolCall{ID: id, Name: tc.Function.Name, Arguments: args})
	}
	return AssistantMessage(strings.TrimSpace(choice.Content), calls...), nil
}

func openAIMessage(msg Message) openai.ChatCompletionMessage {
	switch msg.Role {
	case RoleAssistant:
		out := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content}
		for _, call := range msg.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: encodeArguments(call.Arguments),
				},
			})
		}
		return out
	case RoleTool:
		return openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
	default:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content}
	}
}

var _ ChatModel = (*OpenAILLM)(nil)

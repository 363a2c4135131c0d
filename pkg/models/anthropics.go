package models

import (
	"context"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicLLM implements ChatModel using Anthropic's Messages API with tool use.
type AnthropicLLM struct {
	Client   *anthropic.Client
	Settings Settings
}

// NewAnthropicLLM constructs a client. It reads ANTHROPIC_API_KEY from the env.
func NewAnthropicLLM(settings Settings) *AnthropicLLM {
	key := os.Getenv("ANTHROPIC_API_KEY")
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(key),
	)
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = DefaultAnthropicModel
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = 1024
	}
	return &AnthropicLLM{Client: &cl, Settings: settings}
}

func (a *AnthropicLLM) Chat(ctx context.Context, req Request) (Message, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.Settings.Model),
		MaxTokens:   int64(a.Settings.MaxTokens),
		Messages:    anthropicMessages(req.Messages),
		Temperature: anthropic.Float(a.Settings.Temperature),
	}
	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, def := range req.Tools {
		schema := objectSchema(def.Parameters)
		tool := anthropic.ToolParam{
			Name: def.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		}
		if def.Description != "" {
			tool.Description = anthropic.String(def.Description)
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
	}

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return Message{}, fmt.Errorf("anthropic chat: %w", err)
	}

	var (
		b     strings.Builder
		calls []ToolCall
	)
	for _, cb := range msg.Content {
		switch block := cb.AsAny().(type) {
		case anthropic.TextBlock:
			b.WriteString(block.Text)
		case anthropic.ToolUseBlock:
			args, err := decodeArguments(block.Input)
			if err != nil {
				return Message{}, fmt.Errorf("anthropic chat: tool %s: %w", block.Name, err)
			}
			calls = append(calls, ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}
	return AssistantMessage(strings.TrimSpace(b.String()), calls...), nil
}

// anthropicMessages folds tool results into user turns; consecutive turns of
// the same role are merged because the API requires strict alternation.
func anthropicMessages(messages []Message) []anthropic.MessageParam {
	type turn struct {
		assistant bool
		blocks    []anthropic.ContentBlockParamUnion
	}
	var turns []turn
	push := func(assistant bool, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(turns); n > 0 && turns[n-1].assistant == assistant {
			turns[n-1].blocks = append(turns[n-1].blocks, blocks...)
			return
		}
		turns = append(turns, turn{assistant: assistant, blocks: blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if strings.TrimSpace(msg.Content) != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				args := call.Arguments
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, args, call.Name))
			}
			push(true, blocks...)
		case RoleTool:
			isError := strings.HasPrefix(msg.Content, "Error:")
			push(false, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, isError))
		default:
			push(false, anthropic.NewTextBlock(msg.Content))
		}
	}

	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		if t.assistant {
			out = append(out, anthropic.NewAssistantMessage(t.blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(t.blocks...))
		}
	}
	return out
}

var _ ChatModel = (*AnthropicLLM)(nil)

package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ---------------------------- Google Gemini ----------------------------------

const DefaultGeminiModel = "gemini-1.5-flash"

type GeminiLLM struct {
	Client   *genai.Client
	Settings Settings
}

func NewGeminiLLM(ctx context.Context, settings Settings) (*GeminiLLM, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = DefaultGeminiModel
	}
	return &GeminiLLM{Client: client, Settings: settings}, nil
}

func (g *GeminiLLM) Chat(ctx context.Context, req Request) (Message, error) {
	model := g.Client.GenerativeModel(g.Settings.Model)
	model.SetTemperature(float32(g.Settings.Temperature))
	if g.Settings.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.Settings.MaxTokens))
	}
	if system := strings.TrimSpace(req.System); system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, def := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  geminiSchema(objectSchema(def.Parameters)),
			})
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	history := geminiHistory(req.Messages)
	if len(history) == 0 {
		return Message{}, errors.New("gemini chat: empty conversation")
	}
	last := history[len(history)-1]
	if last.Role != "user" {
		return Message{}, fmt.Errorf("gemini chat: conversation must end with a user turn, got %q", last.Role)
	}

	session := model.StartChat()
	session.History = history[:len(history)-1]
	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return Message{}, fmt.Errorf("gemini chat: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Message{}, errors.New("gemini chat: empty response")
	}

	var (
		text  strings.Builder
		calls []ToolCall
	)
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			args := p.Args
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, ToolCall{ID: NewCallID(), Name: p.Name, Arguments: args})
		}
	}
	return AssistantMessage(strings.TrimSpace(text.String()), calls...), nil
}

// geminiHistory maps conversation entries onto Gemini turns. Consecutive
// entries with the same Gemini role are merged so that parallel function
// responses travel in one turn.
func geminiHistory(messages []Message) []*genai.Content {
	var out []*genai.Content
	push := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			push("user", genai.Text(msg.Content))
		case RoleAssistant:
			var parts []genai.Part
			if strings.TrimSpace(msg.Content) != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Arguments})
			}
			push("model", parts...)
		case RoleTool:
			push("user", genai.FunctionResponse{
				Name:     msg.ToolName,
				Response: map[string]any{"content": msg.Content},
			})
		}
	}
	return out
}

func (g *GeminiLLM) Close() error {
	if g.Client == nil {
		return nil
	}
	return g.Client.Close()
}

var _ ChatModel = (*GeminiLLM)(nil)

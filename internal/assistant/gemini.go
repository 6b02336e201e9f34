package assistant

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/deskclerk/deskclerk/internal/tools"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiClient implements Client on the Google GenAI API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// NewGemini creates a Gemini-backed client.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := &GeminiClient{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends the conversation and returns the model's next turn.
func (c *GeminiClient) Complete(ctx context.Context, system string, messages []Message, defs []tools.Definition) (*Reply, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for i := range messages {
		contents = append(contents, geminiContent(&messages[i]))
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(defs) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: geminiDeclarations(defs)}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return parseReply(resp)
}

// geminiContent maps one conversation turn to the wire shape. Assistant turns
// become model content carrying any function calls; tool turns become user
// content carrying the function responses.
func geminiContent(m *Message) *genai.Content {
	switch m.Role {
	case RoleAssistant:
		parts := make([]*genai.Part, 0, 1+len(m.Calls))
		if m.Text != "" {
			parts = append(parts, genai.NewPartFromText(m.Text))
		}
		for _, call := range m.Calls {
			parts = append(parts, genai.NewPartFromFunctionCall(call.Name, call.Args))
		}
		return genai.NewContentFromParts(parts, genai.RoleModel)
	case RoleTool:
		parts := make([]*genai.Part, 0, len(m.Results))
		for _, result := range m.Results {
			parts = append(parts, genai.NewPartFromFunctionResponse(result.Name, map[string]any{
				"content":  result.Content,
				"is_error": result.IsError,
			}))
		}
		return genai.NewContentFromParts(parts, genai.RoleUser)
	default:
		return genai.NewContentFromText(m.Text, genai.RoleUser)
	}
}

func geminiDeclarations(defs []tools.Definition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(defs))
	for i, def := range defs {
		decls[i] = &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  geminiSchema(def.InputSchema),
		}
	}
	return decls
}

func geminiSchema(in tools.InputSchema) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeObject}
	if len(in.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(in.Properties))
		for name, prop := range in.Properties {
			s.Properties[name] = &genai.Schema{
				Type:        geminiType(prop.Type),
				Description: prop.Description,
			}
		}
	}
	if len(in.Required) > 0 {
		s.Required = append([]string(nil), in.Required...)
	}
	return s
}

func geminiType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// parseReply flattens the first candidate into text plus tool calls.
func parseReply(resp *genai.GenerateContentResponse) (*Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("model returned no candidates")
	}

	cand := resp.Candidates[0]
	reply := &Reply{StopReason: string(cand.FinishReason)}

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			reply.Calls = append(reply.Calls, ToolCall{
				ID:   fmt.Sprintf("call_%d", len(reply.Calls)),
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}
	reply.Text = strings.TrimSpace(text.String())
	return reply, nil
}

// Package llm adapts github.com/sashabaranov/go-openai to the llmport.Client
// port: a thin client struct holding an SDK client and a logger, with no
// timeout (the caller's context bounds each call) and no retry logic of its
// own.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/drivethru-ai/conversation-core/internal/llmport"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// OpenAIClient implements llmport.Client over the Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	log    *logger.Logger
}

// NewOpenAIClient builds a client from an API key. The timeout per call is
// applied by the caller via context (classifier/parser), not inside the port.
func NewOpenAIClient(apiKey string, log *logger.Logger) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClient(apiKey), log: log}
}

func toOpenAIRole(r llmport.Role) string {
	switch r {
	case llmport.RoleSystem:
		return openai.ChatMessageRoleSystem
	case llmport.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case llmport.RoleTool:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}

func toOpenAIMessages(msgs []llmport.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{
			Role:       toOpenAIRole(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
	}
	return out
}

func paramsToJSONSchema(params []llmport.ToolParam) map[string]any {
	props := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		props[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func toOpenAITools(tools []llmport.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  paramsToJSONSchema(t.Params),
			},
		}
	}
	return out
}

// Chat issues one Chat Completions call. When req.ResponseSchema is set the
// request is made in JSON-object mode and the reply's Content is parsed as
// JSON into ChatResponse.JSON; otherwise the raw text is returned.
func (c *OpenAIClient) Chat(ctx context.Context, req llmport.ChatRequest) (llmport.ChatResponse, error) {
	ccr := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
		Tools:    toOpenAITools(req.Tools),
	}
	if req.ResponseSchema != nil {
		ccr.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return llmport.ChatResponse{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llmport.ChatResponse{}, fmt.Errorf("openai chat completion: no choices returned")
	}

	choice := resp.Choices[0]
	out := llmport.ChatResponse{Text: choice.Message.Content}

	if len(choice.Message.ToolCalls) > 0 {
		out.ToolCalls = make([]llmport.ToolCall, len(choice.Message.ToolCalls))
		for i, tc := range choice.Message.ToolCalls {
			args := map[string]any{}
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					c.log.WithError(err).Warn("llm: failed to unmarshal tool call arguments for %s", tc.Function.Name)
				}
			}
			out.ToolCalls[i] = llmport.ToolCall{ID: tc.ID, ToolName: tc.Function.Name, Arguments: args}
		}
		return out, nil
	}

	if req.ResponseSchema != nil && choice.Message.Content != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(choice.Message.Content), &parsed); err != nil {
			return llmport.ChatResponse{}, fmt.Errorf("openai chat completion: response not valid JSON: %w", err)
		}
		out.JSON = parsed
	}

	return out, nil
}

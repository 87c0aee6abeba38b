package metrics

import (
	"context"
	"time"

	"github.com/drivethru-ai/conversation-core/internal/llmport"
)

// instrumentedLLMClient wraps an llmport.Client so every Chat call — from
// the Intent Classifier or any Intent Parser — is observed without each
// caller threading a stopwatch through its own code.
type instrumentedLLMClient struct {
	llmport.Client
	metrics   *Metrics
	component string
}

// WrapLLMClient returns an llmport.Client that records ObserveLLMCall for
// every Chat call, labeled with component (e.g. "intent_classifier",
// "add_item_parser", "remove_modify_parser").
func WrapLLMClient(client llmport.Client, m *Metrics, component string) llmport.Client {
	return &instrumentedLLMClient{Client: client, metrics: m, component: component}
}

func (c *instrumentedLLMClient) Chat(ctx context.Context, req llmport.ChatRequest) (llmport.ChatResponse, error) {
	start := time.Now()
	resp, err := c.Client.Chat(ctx, req)
	c.metrics.ObserveLLMCall(c.component, err, time.Since(start))
	return resp, err
}

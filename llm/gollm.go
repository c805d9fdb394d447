package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmClient implements Client on top of a gollm.LLM instance. It translates
// the typed conversation history into a gollm prompt, extracts function calls
// from the generated text, and classifies provider errors so that transient
// failures are retried before surfacing.
type GollmClient struct {
	provider string
	llm      gollm.LLM
	model    string
	retry    RetryPolicy
}

// GollmClientOption configures a GollmClient.
type GollmClientOption func(*gollmClientConfig)

type gollmClientConfig struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	retry       *RetryPolicy
	extraOpts   []gollm.ConfigOption
}

// WithAPIKey sets the API key for the client.
func WithAPIKey(key string) GollmClientOption {
	return func(c *gollmClientConfig) {
		c.apiKey = key
	}
}

// WithModel sets the default model for the client.
func WithModel(model string) GollmClientOption {
	return func(c *gollmClientConfig) {
		c.model = model
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) GollmClientOption {
	return func(c *gollmClientConfig) {
		c.retry = &policy
	}
}

// WithGollmOptions adds extra gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmClientOption {
	return func(c *gollmClientConfig) {
		c.extraOpts = append(c.extraOpts, opts...)
	}
}

// NewGollmClient creates a GollmClient for the given provider. If apiKey is
// empty, gollm reads it from the provider's environment variable.
func NewGollmClient(provider string, apiKey string, opts ...GollmClientOption) (*GollmClient, error) {
	cfg := &gollmClientConfig{
		apiKey:      apiKey,
		maxTokens:   4096,
		temperature: 0.2,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	model := cfg.model
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-5-20250514"
		default:
			model = "gpt-4o-mini"
		}
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // retries are handled by RetryPolicy
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}

	if cfg.apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(cfg.apiKey))
	}

	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gollm LLM for provider %s: %w", provider, err)
	}

	retry := DefaultRetryPolicy()
	if cfg.retry != nil {
		retry = *cfg.retry
	}

	return &GollmClient{
		provider: provider,
		llm:      llm,
		model:    model,
		retry:    retry,
	}, nil
}

// NewGollmClientFromLLM wraps an existing gollm.LLM instance.
func NewGollmClientFromLLM(provider string, llm gollm.LLM) *GollmClient {
	return &GollmClient{
		provider: provider,
		llm:      llm,
		model:    "",
		retry:    DefaultRetryPolicy(),
	}
}

// Provider returns the provider identifier.
func (c *GollmClient) Provider() string {
	return c.provider
}

// SendTurn submits the conversation history and returns the decomposed
// response. Transient provider errors are retried per the client's policy.
func (c *GollmClient) SendTurn(ctx context.Context, history []Item, cfg TurnConfig) (*TurnResponse, error) {
	prompt := c.translateHistory(history, cfg)
	c.applyTurnConfig(cfg)

	text, err := Retry(ctx, c.retry, func(ctx context.Context) (string, error) {
		out, genErr := c.llm.Generate(ctx, prompt)
		if genErr != nil {
			return "", c.translateError(genErr)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	return c.buildResponse(history, text), nil
}

// translateHistory converts the typed history into a gollm Prompt. Assistant
// turns, function calls, and outputs are folded into the prompt text so the
// model sees the full exchange.
func (c *GollmClient) translateHistory(history []Item, cfg TurnConfig) *gollm.Prompt {
	var systemPrompt string
	var parts []string

	for _, item := range history {
		switch item.Kind {
		case ItemMessage:
			if item.Message == nil {
				continue
			}
			switch item.Message.Role {
			case RoleSystem:
				systemPrompt += item.Message.Content + "\n"
			case RoleUser:
				parts = append(parts, item.Message.Content)
			case RoleAssistant:
				if item.Message.Content != "" {
					parts = append(parts, "[Assistant]: "+item.Message.Content)
				}
			}
		case ItemFunctionCall:
			if item.FunctionCall != nil {
				parts = append(parts, fmt.Sprintf("[Assistant called %s]: %s",
					item.FunctionCall.Name, item.FunctionCall.Arguments))
			}
		case ItemFunctionCallOutput:
			if item.FunctionCallOutput != nil {
				parts = append(parts, "[Tool Result]: "+item.FunctionCallOutput.Output)
			}
		case ItemReasoning:
			// Reasoning is never sent back to the model.
		}
	}

	promptText := strings.Join(parts, "\n")
	if promptText == "" {
		promptText = "Hello"
	}

	promptOpts := []gollm.PromptOption{}

	if systemPrompt != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(strings.TrimSpace(systemPrompt), gollm.CacheTypeEphemeral))
	}

	if cfg.MaxTokens != nil {
		promptOpts = append(promptOpts, gollm.WithMaxLength(*cfg.MaxTokens))
	}

	if len(cfg.Tools) > 0 {
		tools := make([]gollm.Tool, 0, len(cfg.Tools))
		for _, t := range cfg.Tools {
			tools = append(tools, gollm.Tool{
				Type: "function",
				Function: gollm.Function{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		promptOpts = append(promptOpts, gollm.WithTools(tools))
		promptOpts = append(promptOpts, gollm.WithToolChoice("auto"))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// applyTurnConfig applies per-turn parameters to the underlying gollm LLM.
func (c *GollmClient) applyTurnConfig(cfg TurnConfig) {
	if cfg.Model != "" {
		c.llm.SetOption("model", cfg.Model)
	}
	if cfg.Temperature != nil {
		c.llm.SetOption("temperature", *cfg.Temperature)
	}
	if cfg.TopP != nil {
		c.llm.SetOption("top_p", *cfg.TopP)
	}
	if cfg.MaxTokens != nil {
		c.llm.SetOption("max_tokens", *cfg.MaxTokens)
	}
}

// buildResponse decomposes the generated text into typed items and attaches a
// usage estimate. gollm does not expose provider-reported token counts, so
// counts are approximated from text length.
func (c *GollmClient) buildResponse(history []Item, text string) *TurnResponse {
	responseID := "resp_" + uuid.New().String()[:8]

	var items []Item
	calls := parseFunctionCalls(text)

	cleaned := removeFunctionCallJSON(text, calls)
	if cleaned != "" {
		items = append(items, NewAssistantMessageItem(cleaned, "msg_"+uuid.New().String()[:8], "completed"))
	}
	for _, call := range calls {
		items = append(items, Item{Kind: ItemFunctionCall, FunctionCall: &call})
	}

	if len(items) == 0 {
		items = append(items, NewAssistantMessageItem(text, "msg_"+uuid.New().String()[:8], "completed"))
	}

	inputTokens := estimateHistoryTokens(history)
	outputTokens := len(text) / 4

	return &TurnResponse{
		ID:    responseID,
		Items: items,
		Usage: Usage{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
		},
	}
}

// parseFunctionCalls extracts function calls embedded as JSON in the response
// text. gollm surfaces tool calls this way for providers it proxies.
func parseFunctionCalls(text string) []FunctionCallItem {
	start := strings.Index(text, `{"tool_calls"`)
	if start == -1 {
		start = strings.Index(text, `[{"name"`)
	}
	if start == -1 {
		return nil
	}

	var rawCalls []struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	remaining := text[start:]
	if strings.HasPrefix(remaining, `{"tool_calls"`) {
		var wrapper struct {
			ToolCalls []struct {
				Name      string          `json:"name"`
				Arguments json.RawMessage `json:"arguments"`
			} `json:"tool_calls"`
		}
		if err := json.Unmarshal([]byte(remaining), &wrapper); err != nil {
			return nil
		}
		rawCalls = wrapper.ToolCalls
	} else {
		if err := json.Unmarshal([]byte(remaining), &rawCalls); err != nil {
			return nil
		}
	}

	var calls []FunctionCallItem
	for _, rc := range rawCalls {
		id := uuid.New().String()[:8]
		calls = append(calls, FunctionCallItem{
			ID:        "fc_" + id,
			CallID:    "call_" + id,
			Name:      rc.Name,
			Arguments: string(rc.Arguments),
		})
	}
	return calls
}

// removeFunctionCallJSON strips parsed function call JSON from the text.
func removeFunctionCallJSON(text string, calls []FunctionCallItem) string {
	if len(calls) == 0 {
		return strings.TrimSpace(text)
	}
	result := text
	for _, pattern := range []string{`{"tool_calls"`, `[{"name"`} {
		if idx := strings.Index(result, pattern); idx != -1 {
			result = result[:idx]
		}
	}
	return strings.TrimSpace(result)
}

// translateError converts a gollm error into the typed error hierarchy.
func (c *GollmClient) translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()

	msgLower := strings.ToLower(msg)
	switch {
	case strings.Contains(msgLower, "401") || strings.Contains(msgLower, "unauthorized") || strings.Contains(msgLower, "invalid api key"):
		return &AuthenticationError{ProviderError: ProviderError{
			APIError: APIError{Message: msg, Cause: err}, Provider: c.provider, StatusCode: 401,
		}}
	case strings.Contains(msgLower, "403") || strings.Contains(msgLower, "forbidden"):
		return &AccessDeniedError{ProviderError: ProviderError{
			APIError: APIError{Message: msg, Cause: err}, Provider: c.provider, StatusCode: 403,
		}}
	case strings.Contains(msgLower, "404") || strings.Contains(msgLower, "not found"):
		return &NotFoundError{ProviderError: ProviderError{
			APIError: APIError{Message: msg, Cause: err}, Provider: c.provider, StatusCode: 404,
		}}
	case strings.Contains(msgLower, "429") || strings.Contains(msgLower, "rate limit"):
		return &RateLimitError{ProviderError: ProviderError{
			APIError: APIError{Message: msg, Cause: err}, Provider: c.provider, StatusCode: 429, Retryable: true,
		}}
	case strings.Contains(msgLower, "context length") || strings.Contains(msgLower, "too many tokens"):
		return &ContextLengthError{ProviderError: ProviderError{
			APIError: APIError{Message: msg, Cause: err}, Provider: c.provider, StatusCode: 413,
		}}
	case strings.Contains(msgLower, "500") || strings.Contains(msgLower, "internal server"):
		return &ServerError{ProviderError: ProviderError{
			APIError: APIError{Message: msg, Cause: err}, Provider: c.provider, StatusCode: 500, Retryable: true,
		}}
	case strings.Contains(msgLower, "timeout"):
		return &RequestTimeoutError{APIError: APIError{Message: msg, Cause: err}}
	case strings.Contains(msgLower, "connection refused") || strings.Contains(msgLower, "no such host"):
		return &NetworkError{APIError: APIError{Message: msg, Cause: err}}
	default:
		return &ProviderError{
			APIError:  APIError{Message: msg, Cause: err},
			Provider:  c.provider,
			Retryable: true,
		}
	}
}

// estimateHistoryTokens gives a rough token count for the request side.
func estimateHistoryTokens(history []Item) int {
	total := 0
	for _, item := range history {
		switch item.Kind {
		case ItemMessage:
			if item.Message != nil {
				total += len(item.Message.Content) / 4
			}
		case ItemFunctionCall:
			if item.FunctionCall != nil {
				total += len(item.FunctionCall.Arguments) / 4
			}
		case ItemFunctionCallOutput:
			if item.FunctionCallOutput != nil {
				total += len(item.FunctionCallOutput.Output) / 4
			}
		}
	}
	if total == 0 {
		total = 10
	}
	return total
}

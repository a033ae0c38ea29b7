package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"virtual-patient/configs"
	"virtual-patient/internal/domain"
	"virtual-patient/internal/ports/output"
	"virtual-patient/pkg/metrics"
	"virtual-patient/pkg/retry"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

var _ output.CompletionClient = (*OpenAIClientAdapter)(nil)

// OpenAIClientAdapter struct - Output adapter for the OpenAI chat completion API
type OpenAIClientAdapter struct {
	client       *goopenai.Client
	model        string
	timeout      time.Duration
	maxRetries   int
	initialDelay time.Duration
}

// NewOpenAIClientAdapter func - Creates new OpenAI client adapter
func NewOpenAIClientAdapter(config configs.OpenAI) *OpenAIClientAdapter {
	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if baseURL := strings.TrimSuffix(config.BaseURL, "/"); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if config.Timeout <= 0 {
		timeout = 30 * time.Second
	}

	model := config.Model
	if model == "" {
		model = "gpt-3.5-turbo-1106"
	}

	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	logrus.Infof("OpenAI client adapter initialized with base URL: %s, model: %s, timeout: %v", clientConfig.BaseURL, model, timeout)

	return &OpenAIClientAdapter{
		client:       goopenai.NewClientWithConfig(clientConfig),
		model:        model,
		timeout:      timeout,
		maxRetries:   maxRetries,
		initialDelay: retry.DefaultInitialDelay,
	}
}

// ChatCompletion sends a non-streaming chat completion request.
// Each attempt is bounded by the configured timeout; transient failures are retried with backoff.
func (a *OpenAIClientAdapter) ChatCompletion(ctx context.Context, request domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
	apiRequest := a.buildRequest(request)

	started := time.Now()
	resp, err := a.retryWithBackoff(ctx, func() (goopenai.ChatCompletionResponse, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return a.client.CreateChatCompletion(attemptCtx, apiRequest)
	})
	metrics.ObserveUpstream(metrics.ProviderCompletion, started, err)
	if err != nil {
		return nil, fmt.Errorf("failed to send chat completion request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", domain.ErrCompletionUnavailable)
	}

	response := &domain.ChatCompletionResponse{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	logrus.Debugf("Chat completion successful, model: %s, tokens: %d", response.Model, response.TotalTokens)

	return response, nil
}

func (a *OpenAIClientAdapter) buildRequest(request domain.ChatCompletionRequest) goopenai.ChatCompletionRequest {
	apiRequest := goopenai.ChatCompletionRequest{
		Model:    a.model,
		Messages: make([]goopenai.ChatCompletionMessage, len(request.Messages)),
	}
	for i, msg := range request.Messages {
		apiRequest.Messages[i] = goopenai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	if request.Temperature != nil {
		apiRequest.Temperature = *request.Temperature
	}
	if request.MaxTokens != nil {
		apiRequest.MaxTokens = *request.MaxTokens
	}
	if request.JSONMode {
		apiRequest.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return apiRequest
}

// retryWithBackoff runs operation under the shared retry policy and maps the outcome to domain errors
func (a *OpenAIClientAdapter) retryWithBackoff(ctx context.Context, operation func() (goopenai.ChatCompletionResponse, error)) (goopenai.ChatCompletionResponse, error) {
	policy := retry.Policy{
		MaxRetries:   a.maxRetries,
		InitialDelay: a.initialDelay,
		OnRetry: func(attempt, attempts int, err error, delay time.Duration) {
			logrus.Warnf("OpenAI request attempt %d/%d failed: %v, retrying in %v", attempt, attempts, err, delay)
			metrics.IncUpstreamRetry(metrics.ProviderCompletion)
		},
	}

	resp, err := retry.Do(ctx, policy, func() (goopenai.ChatCompletionResponse, int, error) {
		resp, err := operation()
		return resp, statusCode(err), err
	})
	if err == nil {
		return resp, nil
	}

	var retryErr *retry.Error
	if !errors.As(err, &retryErr) {
		return goopenai.ChatCompletionResponse{}, fmt.Errorf("%w: %v", domain.ErrCompletionUnavailable, err)
	}
	switch retryErr.Reason {
	case retry.ReasonClient:
		return goopenai.ChatCompletionResponse{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, retryErr)
	case retry.ReasonCanceled:
		return goopenai.ChatCompletionResponse{}, fmt.Errorf("%w: %v", domain.ErrCompletionTimeout, retryErr)
	case retry.ReasonExhausted:
		if errors.Is(retryErr, context.DeadlineExceeded) {
			return goopenai.ChatCompletionResponse{}, fmt.Errorf("%w: %v", domain.ErrCompletionTimeout, retryErr)
		}
	}
	return goopenai.ChatCompletionResponse{}, fmt.Errorf("%w: %v", domain.ErrCompletionUnavailable, retryErr)
}

// statusCode extracts the HTTP status from go-openai errors, 0 when there is none
func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

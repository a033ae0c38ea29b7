package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"virtual-patient/configs"
	"virtual-patient/internal/domain"
	"virtual-patient/internal/ports/output"
	"virtual-patient/pkg/metrics"
	"virtual-patient/pkg/retry"

	"github.com/sirupsen/logrus"
)

var _ output.SpeechClient = (*ElevenLabsClientAdapter)(nil)

// ElevenLabsClientAdapter struct - Output adapter for the ElevenLabs text-to-speech streaming API
type ElevenLabsClientAdapter struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	voiceID      string
	modelID      string
	maxRetries   int
	initialDelay time.Duration
}

// NewElevenLabsClientAdapter func - Creates new ElevenLabs client adapter
func NewElevenLabsClientAdapter(config configs.ElevenLabs) *ElevenLabsClientAdapter {
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if config.Timeout <= 0 {
		timeout = 30 * time.Second
	}

	voiceID := config.VoiceID
	if voiceID == "" {
		voiceID = "9BWtsMINqrJLrRacOk9x"
	}
	modelID := config.ModelID
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}

	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	httpClient := &http.Client{
		Timeout: timeout,
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

	logrus.Infof("ElevenLabs client adapter initialized with base URL: %s, voice: %s, timeout: %v", baseURL, voiceID, timeout)

	return &ElevenLabsClientAdapter{
		httpClient:   httpClient,
		baseURL:      baseURL,
		apiKey:       config.APIKey,
		voiceID:      voiceID,
		modelID:      modelID,
		maxRetries:   maxRetries,
		initialDelay: retry.DefaultInitialDelay,
	}
}

// textToSpeechRequest represents the request body of the streaming endpoint
type textToSpeechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize streams the audio for text and returns it fully buffered.
// Chunks are concatenated in arrival order.
func (a *ElevenLabsClientAdapter) Synthesize(ctx context.Context, text string) ([]byte, error) {
	bodyBytes, err := json.Marshal(textToSpeechRequest{Text: text, ModelID: a.modelID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", a.baseURL, a.voiceID)

	started := time.Now()
	audio, err := a.retryWithBackoff(ctx, func() ([]byte, int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")
		req.Header.Set("xi-api-key", a.apiKey)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return nil, resp.StatusCode, fmt.Errorf("status %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, resp.Body); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("failed to read audio stream: %w", err)
		}
		return buf.Bytes(), resp.StatusCode, nil
	})
	metrics.ObserveUpstream(metrics.ProviderSpeech, started, err)
	if err != nil {
		return nil, err
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio stream", domain.ErrSpeechUnavailable)
	}

	logrus.Debugf("Speech synthesis successful, %d bytes for %d characters", len(audio), len(text))

	return audio, nil
}

// retryWithBackoff runs operation under the shared retry policy. Every failure wraps ErrSpeechUnavailable.
func (a *ElevenLabsClientAdapter) retryWithBackoff(ctx context.Context, operation func() ([]byte, int, error)) ([]byte, error) {
	policy := retry.Policy{
		MaxRetries:   a.maxRetries,
		InitialDelay: a.initialDelay,
		OnRetry: func(attempt, attempts int, err error, delay time.Duration) {
			logrus.Warnf("ElevenLabs request attempt %d/%d failed: %v, retrying in %v", attempt, attempts, err, delay)
			metrics.IncUpstreamRetry(metrics.ProviderSpeech)
		},
	}

	audio, err := retry.Do(ctx, policy, operation)
	if err == nil {
		return audio, nil
	}

	var retryErr *retry.Error
	if errors.As(err, &retryErr) && retryErr.Reason == retry.ReasonClient {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrSpeechUnavailable, domain.ErrInvalidRequest, err)
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrSpeechUnavailable, err)
}

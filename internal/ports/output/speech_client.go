package output

import "context"

// SpeechClient interface - Output port
// Defines what the application needs from a text-to-speech provider
type SpeechClient interface {
	// Synthesize converts text to audio. The returned bytes are the complete
	// audio payload; partial streams are never returned.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

package domain

import "errors"

var (
	// ErrEmptyMessage indicates the doctor's message is missing or blank
	ErrEmptyMessage = errors.New("message is required")

	// ErrEmptyRegion indicates the palpation region is missing or blank
	ErrEmptyRegion = errors.New("region is required")

	// ErrMissingCredentials indicates an upstream API key is not configured
	ErrMissingCredentials = errors.New("API keys are missing")

	// ErrCaseNotFound indicates the case document could not be read
	ErrCaseNotFound = errors.New("case document not found")

	// ErrCaseMalformed indicates the case document is not a JSON object
	ErrCaseMalformed = errors.New("case document is malformed")

	// ErrCompletionUnavailable indicates the completion service is unavailable
	ErrCompletionUnavailable = errors.New("completion service unavailable")

	// ErrCompletionTimeout indicates a request to the completion service timed out
	ErrCompletionTimeout = errors.New("completion request timeout")

	// ErrInvalidReply indicates the completion reply does not match the expected shape
	ErrInvalidReply = errors.New("invalid completion reply")

	// ErrSpeechUnavailable indicates the speech synthesis service failed
	ErrSpeechUnavailable = errors.New("speech service unavailable")

	// ErrInvalidRequest indicates an invalid request was made (4xx client errors)
	ErrInvalidRequest = errors.New("invalid request")
)

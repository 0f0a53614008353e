package errors

import "errors"

var (
	// ErrUpstream is a transport or availability failure calling the
	// generative capability.
	ErrUpstream = errors.New("upstream model call failed")
	// ErrContentBlocked means the capability's own safety filter rejected
	// the prompt before any text was produced.
	ErrContentBlocked = errors.New("content blocked by model safety filter")
	// ErrMalformedContract means model output could not be parsed as the
	// expected JSON object.
	ErrMalformedContract = errors.New("malformed model response")
	// ErrDownload is an image fetch failure (network error or non-2xx).
	ErrDownload = errors.New("image download failed")
	// ErrInvalidImage means the payload is not a decodable raster image.
	ErrInvalidImage = errors.New("invalid image data")
	// ErrGenerationTimeout means a long-running media job exceeded its
	// poll budget.
	ErrGenerationTimeout = errors.New("media generation timed out")
	// ErrEmptyPrompt means a generated media prompt was absent or empty.
	ErrEmptyPrompt = errors.New("generated prompt is empty")
	// ErrInvalidPromptType means the prompt field was present but not a string.
	ErrInvalidPromptType = errors.New("generated prompt has wrong type")
	// ErrEvaluationFailed wraps any hard failure of the writing evaluation.
	ErrEvaluationFailed = errors.New("writing evaluation failed")
)

package classify

import (
	"errors"
	"fmt"
	"strings"
)

// Category identifies the kind of obstacle that stopped a pipeline run.
type Category string

const (
	// InvalidURL means the input failed URL-shape validation.
	InvalidURL Category = "invalid_url"
	// BotDetection means the downloader hit an anti-automation challenge.
	BotDetection Category = "bot_detection"
	// GeoRestricted means the content is blocked for this region.
	GeoRestricted Category = "geo_restricted"
	// AgeRestricted means the content requires authenticated age verification.
	AgeRestricted Category = "age_restricted"
	// FormatUnavailable means no stream matched the requested quality.
	FormatUnavailable Category = "format_unavailable"
	// NetworkTimeout means a transport-level timeout during download.
	NetworkTimeout Category = "network_timeout"
	// RateLimited means the platform throttled this client.
	RateLimited Category = "rate_limited"
	// ProcessingTimeout means the encoder exceeded its wall-clock budget.
	ProcessingTimeout Category = "processing_timeout"
	// ProcessingFailed means the encoder exited non-zero or produced an
	// invalid or oversized output.
	ProcessingFailed Category = "processing_failed"
	// PublishFailed means the upload to remote storage failed.
	PublishFailed Category = "publish_failed"
	// Unknown is unclassified failure text from any stage.
	Unknown Category = "unknown"
)

// rule maps known tool error phrasings to a category. Rules are checked
// in order and the first hint found in the text wins, so more specific
// phrasings must come before generic ones ("confirm you're not a bot"
// and "confirm your age" share a prefix in the real tool output).
type rule struct {
	category Category
	hints    []string
}

var toolOutputRules = []rule{
	{BotDetection, []string{
		"not a bot",
		"captcha",
		"precondition check failed",
		"suspicious activity",
	}},
	{AgeRestricted, []string{
		"confirm your age",
		"age-restricted",
		"age restricted",
		"inappropriate for some users",
		"members-only",
		"join this channel",
	}},
	{GeoRestricted, []string{
		"not available in your country",
		"geo restriction",
		"geo-restricted",
		"blocked it in your country",
		"in your location",
	}},
	{RateLimited, []string{
		"http error 429",
		"too many requests",
		"rate limit",
		"rate-limited",
	}},
	{FormatUnavailable, []string{
		"requested format is not available",
		"format not available",
		"no video formats found",
		"only images are available",
	}},
	{NetworkTimeout, []string{
		"timed out",
		"timeout",
		"connection reset",
		"network is unreachable",
		"name resolution",
		"connection refused",
	}},
}

// ToolOutput maps raw downloader diagnostic text to a Category using
// ordered substring rules. Matching is case-insensitive. Text that
// matches no rule classifies as Unknown.
func ToolOutput(text string) Category {
	lower := strings.ToLower(text)
	for _, r := range toolOutputRules {
		for _, hint := range r.hints {
			if strings.Contains(lower, hint) {
				return r.category
			}
		}
	}
	return Unknown
}

// Error is a classified failure. Stages produce it, the pipeline
// controller surfaces its category and message to the caller; the raw
// tool output never rides along.
type Error struct {
	Category Category
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a classified error with a formatted message.
func NewError(category Category, format string, args ...interface{}) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// CategoryOf extracts the Category from an error chain. Errors that
// carry no classification report Unknown.
func CategoryOf(err error) Category {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Category
	}
	return Unknown
}

// suggestions carries the generic advice string surfaced to callers
// alongside each failure category.
var suggestions = map[Category]string{
	InvalidURL:        "The URL does not look like a supported video link. Use a direct video URL, not a playlist or channel.",
	BotDetection:      "The platform flagged automated access. A fresh browser cookie export usually clears this.",
	GeoRestricted:     "The content is blocked for this server's region.",
	AgeRestricted:     "The video needs an authenticated, age-verified account. Provide a cookie file from a signed-in session.",
	FormatUnavailable: "No downloadable stream matched any requested quality. The video may be a live stream or image post.",
	NetworkTimeout:    "The download timed out. The platform or network may be slow; retrying later often succeeds.",
	RateLimited:       "The platform is throttling this server. Wait before retrying.",
	ProcessingTimeout: "Transcoding ran out of time. Very long videos may need a higher timeout.",
	ProcessingFailed:  "The encoder could not produce a valid output from the downloaded media.",
	PublishFailed:     "The transcoded file could not be uploaded to storage. Check storage credentials and connectivity.",
	Unknown:           "Unrecognized failure. The service logs carry the tool output.",
}

// Suggestion returns generic advice text for a category, suitable for
// caller-facing payloads.
func Suggestion(category Category) string {
	if s, ok := suggestions[category]; ok {
		return s
	}
	return suggestions[Unknown]
}

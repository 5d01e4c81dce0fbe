package downloader

import (
	"net/url"
	"regexp"
	"strings"

	"video-relay/internal/classify"
)

// videoIDPattern matches the platform's video identifiers.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// videoHosts are the hostnames accepted for full-form video URLs.
var videoHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
}

// shortHost serves bare-id short links.
const shortHost = "youtu.be"

// ExtractVideoID parses a URL in any supported shape and returns the
// platform video id. Supported shapes are watch links, short links,
// shorts, embeds, and live pages; playlist and channel URLs are
// rejected so a single request never fans out into bulk downloads.
// Errors carry the invalid_url classification.
func ExtractVideoID(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", classify.NewError(classify.InvalidURL, "empty URL")
	}

	// Accept scheme-less input; the platform links get pasted both ways.
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", classify.NewError(classify.InvalidURL, "unparseable URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", classify.NewError(classify.InvalidURL, "unsupported URL scheme %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())

	if host == shortHost {
		return checkVideoID(firstSegment(u.Path))
	}

	if !videoHosts[host] {
		return "", classify.NewError(classify.InvalidURL, "unsupported host %q", host)
	}

	path := u.Path
	switch {
	case path == "/watch" || path == "/watch/":
		return checkVideoID(u.Query().Get("v"))
	case strings.HasPrefix(path, "/shorts/"):
		return checkVideoID(firstSegment(strings.TrimPrefix(path, "/shorts")))
	case strings.HasPrefix(path, "/embed/"):
		return checkVideoID(firstSegment(strings.TrimPrefix(path, "/embed")))
	case strings.HasPrefix(path, "/live/"):
		return checkVideoID(firstSegment(strings.TrimPrefix(path, "/live")))
	case strings.HasPrefix(path, "/v/"):
		return checkVideoID(firstSegment(strings.TrimPrefix(path, "/v")))
	case strings.HasPrefix(path, "/playlist"):
		return "", classify.NewError(classify.InvalidURL, "playlist URLs are not supported, use a direct video link")
	case strings.HasPrefix(path, "/channel/"), strings.HasPrefix(path, "/c/"),
		strings.HasPrefix(path, "/user/"), strings.HasPrefix(path, "/@"):
		return "", classify.NewError(classify.InvalidURL, "channel URLs are not supported, use a direct video link")
	}

	return "", classify.NewError(classify.InvalidURL, "unrecognized video URL shape")
}

// ValidateURL reports whether rawURL is a supported direct video link.
func ValidateURL(rawURL string) error {
	_, err := ExtractVideoID(rawURL)
	return err
}

// firstSegment returns the first path segment, ignoring anything after
// a further slash (shorts and short links sometimes carry trailing
// tracking segments).
func firstSegment(path string) string {
	seg := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(seg, '/'); i != -1 {
		seg = seg[:i]
	}
	return seg
}

func checkVideoID(id string) (string, error) {
	if !videoIDPattern.MatchString(id) {
		return "", classify.NewError(classify.InvalidURL, "URL does not contain a valid video id")
	}
	return id, nil
}

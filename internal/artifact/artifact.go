package artifact

import (
	"path/filepath"
	"strings"
)

// Kind categorizes a file produced by the downloader.
type Kind string

const (
	// KindVideo is a container with at least a video stream.
	KindVideo Kind = "video"
	// KindAudio is an audio-only container.
	KindAudio Kind = "audio"
	// KindThumbnail is an mhtml snapshot page, produced when the tool
	// could only fetch the video's preview instead of its media.
	KindThumbnail Kind = "thumbnail"
	// KindOther is an unrecognized file.
	KindOther Kind = "other"
)

// Artifact is a media file on request-scoped scratch storage. Stages
// hand artifacts to each other; the workspace owns every path.
type Artifact struct {
	Path      string
	SizeBytes int64
	// Duration is best-effort, in seconds; zero when the tool emitted
	// no usable metadata.
	Duration float64
	VideoID  string
	Title    string
	// AudioOnly marks artifacts acquired by the audio fallback
	// strategy; the transcoder synthesizes a video canvas for them.
	AudioOnly bool
}

// VideoExtensions maps file extensions to whether they hold a video stream.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".mov":  true,
	".avi":  true,
	".flv":  true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// AudioExtensions maps file extensions to whether they are audio-only containers.
var AudioExtensions = map[string]bool{
	".m4a":  true,
	".mp3":  true,
	".aac":  true,
	".opus": true,
	".ogg":  true,
	".wav":  true,
	".weba": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",

	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".aac":  "audio/aac",
	".opus": "audio/opus",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
}

// KindOf returns the Kind for a file path based on its extension.
func KindOf(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case VideoExtensions[ext]:
		return KindVideo
	case AudioExtensions[ext]:
		return KindAudio
	case ext == ".mhtml":
		return KindThumbnail
	default:
		return KindOther
	}
}

// IsMedia reports whether the path looks like a playable media file.
func IsMedia(path string) bool {
	k := KindOf(path)
	return k == KindVideo || k == KindAudio
}

// MimeType returns the MIME type for a file path, falling back to
// application/octet-stream for unrecognized extensions.
func MimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if m, ok := MimeTypes[ext]; ok {
		return m
	}
	return "application/octet-stream"
}

// Package artifact defines the media-file value passed between
// pipeline stages and the extension tables used to recognize what the
// downloader produced.
//
// This package exists as a dependency-free foundation that can be
// imported by every stage without creating import cycles. It contains
// the Artifact struct, the Kind enum, and pure lookup helpers with no
// dependencies beyond the standard library.
//
// # Kinds
//
// Downloader output is categorized by extension:
//
//	artifact.KindVideo     // playable video container
//	artifact.KindAudio     // audio-only container (audio fallback strategy)
//	artifact.KindThumbnail // mhtml preview page, not media
//	artifact.KindOther     // anything else
//
// # Usage
//
//	if artifact.IsMedia(path) {
//	    a := &artifact.Artifact{Path: path, SizeBytes: info.Size()}
//	    ...
//	}
//
// MimeType supplies the content type for the publish step:
//
//	contentType := artifact.MimeType(out.Path) // "video/mp4"
package artifact

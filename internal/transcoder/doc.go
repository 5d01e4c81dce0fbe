// Package transcoder converts downloaded media into HEVC MP4 using FFmpeg.
//
// It supports:
//   - HEVC (libx265) encoding with a 720p height ceiling
//   - Audio-only sources rendered onto a static black canvas
//   - Wall-clock timeouts enforced per encode
//   - Output validation before anything reaches the publisher
//   - Media metadata extraction (codec, resolution, duration)
//
// Encoding is performed using FFmpeg and requires it to be installed
// with libx265 support.
package transcoder

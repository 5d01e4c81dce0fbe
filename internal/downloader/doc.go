// Package downloader acquires source media through the yt-dlp binary.
//
// It provides:
//   - URL-shape validation and video id extraction for supported link
//     forms (watch, short link, shorts, embed, live)
//   - An ordered set of acquisition strategies covering quality
//     fallbacks, cookie authentication, client impersonation, and
//     geo bypass
//   - An orchestrator that runs strategies in order, classifies each
//     failure, and stops at the first usable media artifact
//
// The downloader binary itself is an external dependency resolved at
// startup; this package only builds its argv and interprets its output.
package downloader

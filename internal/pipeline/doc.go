// Package pipeline drives one video URL through the full
// download → transcode → publish sequence.
//
// Each run is request-scoped: it owns a fresh workspace directory that
// is always removed on exit, advances strictly through the
// Idle → Acquiring → Transcoding → Publishing → Done states, and
// produces a single Result carrying either a public URL or a classified
// failure. A republish cache short-circuits videos that already have a
// published copy, and a semaphore bounds concurrent encoder
// subprocesses without limiting request acceptance.
package pipeline

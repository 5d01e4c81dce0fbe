// Command relayctl provides a CLI utility for inspecting and maintaining
// the video relay run history.
//
// It supports the following operations:
//   - recent: List the most recent pipeline runs
//   - stats: Show aggregate run statistics
//   - prune: Delete old runs beyond a retention count
//
// Usage:
//
//	relayctl <command> [args]
//
// Commands:
//
//	recent [limit]  Print the newest runs, most recent first. Each line
//	                shows the run time, video ID, outcome, published
//	                size, and the download strategy that succeeded or
//	                the error category that caused the failure.
//	                The default limit is 20.
//
//	stats           Print aggregate counters over the whole history:
//	                total runs, successes, failures, the success rate,
//	                and the total bytes published to storage.
//
//	prune [keep]    Delete every run except the newest keep records.
//	                The default retention is 50 runs, matching the
//	                server's default history page size. A keep of 0
//	                empties the history entirely.
//
// Environment:
//
//	DATA_DIR - Path to data directory (default: ./data)
//
// Notes:
//
// The utility operates directly on the relay.db SQLite file, so it can
// run while the server is up; the database uses WAL mode and a busy
// timeout to tolerate concurrent access. It refuses to run when the
// database file does not exist yet, rather than creating an empty one
// at a mistyped path.
package main

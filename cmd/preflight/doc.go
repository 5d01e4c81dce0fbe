// Command preflight verifies that a host can run the video relay
// service before the server is started.
//
// It performs the same dependency checks the server runs at startup:
// external tool discovery (yt-dlp, ffmpeg with libx265, ffprobe),
// workspace writability, cookie file presence, and object storage
// reachability. The exit code makes it usable as a container
// HEALTHCHECK or a CI smoke test.
//
// Usage:
//
//	preflight [command]
//
// Commands:
//
//	all      Run every check (default when no command is given).
//	         Storage is only probed when STORAGE_ENDPOINT is set.
//
//	tools    Check only the external binaries the pipeline shells
//	         out to.
//
//	storage  Check only object storage reachability. Unlike the
//	         "all" command this fails when storage is unconfigured.
//
// Environment:
//
//	The same variables the server reads: YTDLP_PATH, FFMPEG_PATH,
//	FFPROBE_PATH, WORK_DIR, COOKIES_FILE, STORAGE_ENDPOINT,
//	STORAGE_ACCESS_KEY, STORAGE_SECRET_KEY, STORAGE_BUCKET,
//	STORAGE_USE_SSL.
//
// Exit status:
//
//	0 when every load-bearing check passes. Missing cookies and a
//	missing ffprobe are reported as warnings because the pipeline
//	degrades rather than breaks without them.
package main

/*
Package workers provides utilities for determining worker pool sizes in
containerized environments.

When running in containers, the number of available CPUs may be limited
by cgroup constraints. Go 1.19+ sets GOMAXPROCS from the container CPU
limit automatically, while runtime.NumCPU() still reports the host's
core count. The helpers here size worker pools from GOMAXPROCS so the
service respects its container limits.

The main consumer is the transcode gate: the pipeline allows at most
ForCPU(n) concurrent ffmpeg encodes, since each encode saturates a core
on its own and extra concurrency only adds context switching and memory
pressure.

	// At most 4 concurrent encodes, fewer on small containers
	slots := workers.ForCPU(4)

All functions respect the TRANSCODE_WORKERS environment variable as an
operator override:

	env:
	- name: TRANSCODE_WORKERS
	  value: "2"

Functions are safe for concurrent use.
*/
package workers

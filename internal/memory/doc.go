// Package memory configures Go's runtime memory limit for containerized
// deployments.
//
// # Overview
//
// When running in Kubernetes or other container orchestrators, Go
// applications can be OOM-killed if they exceed their memory limits.
// Unlike GOMAXPROCS, which Go automatically detects from cgroup CPU
// limits, GOMEMLIMIT must be configured explicitly.
//
// This matters doubly for the relay because most of its memory is spent
// outside the Go heap: every request spawns yt-dlp and ffmpeg child
// processes whose allocations the Go runtime cannot see. The Go heap
// must therefore be capped below the container limit so the children
// have room to work.
//
// # Configuration
//
// Call [ConfigureFromEnv] first in main, before any significant
// allocations occur:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ... rest of application
//	}
//
// # Environment Variables
//
//   - GOMEMLIMIT: Standard Go environment variable. If set, takes
//     precedence over all other configuration. Accepts values like
//     "400MiB" or "1GiB".
//
//   - MEMORY_LIMIT: Container memory limit in bytes. Typically set via
//     the Kubernetes Downward API (see example below). This is the raw
//     value from which GOMEMLIMIT is calculated.
//
//   - MEMORY_RATIO: Share of MEMORY_LIMIT to give the Go heap, expressed
//     as a decimal between 0.0 and 1.0. Default is 0.85. Lower it when a
//     deployment runs many concurrent transcodes, since each ffmpeg
//     child needs its own headroom.
//
// # Kubernetes Configuration
//
// To pass the container memory limit to the application, use the
// Downward API in the deployment manifest:
//
//	spec:
//	  containers:
//	  - name: video-relay
//	    resources:
//	      limits:
//	        memory: "1Gi"
//	    env:
//	    - name: MEMORY_LIMIT
//	      valueFrom:
//	        resourceFieldRef:
//	          resource: limits.memory
//	    - name: MEMORY_RATIO
//	      value: "0.75"  # Optional, reserve more room for ffmpeg
//
// # How GOMEMLIMIT Works
//
// GOMEMLIMIT (introduced in Go 1.19) sets a soft memory limit for the Go
// runtime. When heap allocations approach the limit, the garbage
// collector runs more aggressively to stay under it.
//
// Important notes:
//
//   - GOMEMLIMIT is a soft limit, not a hard limit. Go may temporarily
//     exceed it if the GC cannot free memory fast enough.
//
//   - GOMEMLIMIT only governs Go heap allocations. It does not limit
//     memory used by CGO, mmap, or the downloader/encoder children.
//
//   - Setting GOMEMLIMIT too high risks OOM kills. Setting it too low
//     causes excessive GC overhead.
//
// # References
//
//   - Go 1.19 Release Notes (GOMEMLIMIT): https://go.dev/doc/go1.19
//   - GC Guide: https://go.dev/doc/gc-guide
//   - Kubernetes Downward API: https://kubernetes.io/docs/concepts/workloads/pods/downward-api/
package memory

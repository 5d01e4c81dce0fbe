// Package workspace allocates isolated per-request scratch directories
// and guarantees their removal.
//
// Every pipeline run acquires exactly one Workspace, writes all of its
// intermediate files inside it, and releases it from a deferred call so
// the directory disappears on success, failure, timeout, and panic
// alike. Release is idempotent. Manager.Sweep reclaims directories
// orphaned by a previous process that died mid-run.
package workspace

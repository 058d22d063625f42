// Package artifact houses concrete implementations of core.ArtifactStore,
// which keeps local copies of the observations captured during a run. The
// in-memory store suits tests and headless demos; the disk store writes to
// the fixed per-install snapshot directory so model clients that upload files
// have a durable path to read from. Snapshots are safe to overwrite between
// steps.
package artifact

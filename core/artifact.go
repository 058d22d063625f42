package core

// ArtifactStore keeps local copies of per-session observation artifacts
// (captured snapshots). Saving the same artifact id again overwrites the
// previous bytes; snapshots are safe to overwrite between steps.
type ArtifactStore interface {
	// Save stores (or overwrites) the artifact bytes and returns a durable
	// reference to them (a file path for disk-backed stores, the artifact id
	// otherwise).
	Save(sessionID, artifactID string, data []byte) (string, error)

	// Get returns the stored bytes for the session/artifact pair.
	Get(sessionID, artifactID string) ([]byte, error)

	// List returns the artifact ids stored for the session.
	List(sessionID string) ([]string, error)

	// Purge removes every artifact stored for the session.
	Purge(sessionID string) error
}

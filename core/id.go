package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for sessions and runs.
//
// This function creates a UUID-based unique identifier that can be used
// for session tracking and artifact correlation throughout the agent.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }

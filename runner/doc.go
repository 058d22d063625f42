// Package runner implements the core orchestration layer for DeskMesh.
//
// The Runner owns the observe→ask→act loop: it captures an observation of
// the screen, asks the model client for the next instruction, parses the
// reply and hands the instruction to the interpreter, advancing the session
// step counter until the model signals completion, a step fails, or the
// operator cancels the run.
//
// All cross-boundary communication uses two channels: a bounded status
// channel (runner → observer, human-readable progress strings, drop-oldest
// on overflow) and a command channel (observer → runner, new goals and stop
// signals) consumed by Serve. At most one run is ever active; starting a new
// goal stops and waits out the previous run first.
//
// See runner.go for the operational implementation details.
package runner

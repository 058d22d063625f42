// Package core contains the shared domain contracts of DeskMesh: the
// Instruction produced by the remote model, the Observation captured from the
// controlled desktop, the Session tying the steps of one goal together, and
// the capability interfaces (ObservationProvider, Driver) the control loop
// consumes. Higher level packages (runner, interpreter, model adapters)
// depend only on these contracts so concrete providers remain swappable.
package core

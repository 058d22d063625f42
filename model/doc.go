// Package model defines the provider-agnostic contract for the remote
// reasoning service that plans one step at a time from a screenshot and the
// user's goal.
//
// Core goals:
//   - One request/response exchange per step behind a single interface
//   - Session-scoped remote state (conversation handle, uploaded files) with
//     an explicit, exactly-once teardown
//   - Lightweight mocking for tests (MockInstructor)
//
// Providers (OpenAI Assistants, Anthropic Messages) implement the Instructor
// interface from this package so the runner remains decoupled from vendor
// SDKs.
package model

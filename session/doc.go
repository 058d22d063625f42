// Package session houses concrete implementations of core.SessionStore. The
// Session struct and the store interface live in core to centralize domain
// contracts; keeping only implementations here prevents higher level packages
// (runner, model adapters) from depending on concrete storage.
package session

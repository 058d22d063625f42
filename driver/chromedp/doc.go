// Package chromedp implements the automation driver and observation provider
// over a Chrome tab driven through the DevTools protocol.
//
// The Driver dispatches mouse and keyboard primitives as low-level input
// events, captures screenshots of the driven tab as observations, and
// navigates the tab directly when asked to open a URL. It is the Live-mode
// surface; when it cannot be started the interpreter falls back to headless
// simulation.
package chromedp

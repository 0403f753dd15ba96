package log

// Package log is a small wrapper around the standard library logger used by
// all slate components.
//
// Features:
//
//   - Per-component loggers via ForComponent(name)
//   - Automatic `[name]` prefix on every line
//   - Infof / Warnf / Errorf / Debugf level helpers
//   - Debug output toggled globally (SetGlobalDebug) or per component
//     (EnableDebugFor / DisableDebugFor)
//   - Central output writer (SetOutput) that also updates existing loggers,
//     so tests can capture log output in a bytes.Buffer
//
// Structured fields, JSON output and rotation are intentionally out of scope.
//
// Usage:
//
//	l := log.ForComponent("dispatch")
//	l.Infof("search dispatched seq=%d", seq)
//	l.Debugf("raw payload: %s", body) // only with debug enabled
//
// All exported functions are safe for concurrent use.

// Package tracing wraps OpenTelemetry so that the engine, the approval gateway
// and the HTTP layer record spans through one small API.
package tracing

// Package debug provides assertions for DSP development.
//
// Assertions are only active when building with the 'debug' build tag:
//
//	go build -tags debug ./...
//
// In release builds every function is a no-op, so it is safe to call them
// from the audio thread.
package debug

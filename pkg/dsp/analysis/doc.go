// Package analysis provides the visualization and measurement tools that
// observe the generator output.
//
// Scope is a lock-free rolling view of recent output. It is written from the
// audio thread and read from any other goroutine:
//
//	scope := analysis.NewScope(2, 512, analysis.DefaultSamplesPerBlock, 4096)
//	scope.PushBuffer(channels) // audio thread
//	snap := scope.Snapshot()   // UI or HTTP goroutine
//
// Spectrum computes a windowed magnitude spectrum with go-dsp:
//
//	tail := scope.Tail(nil)
//	spec := analysis.Analyze(tail, 44100, analysis.HannWindow)
//	freq, mag := spec.Peak()
package analysis

// Package metrics declares the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges
var (
	CPULoad = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_cpu_load_percent",
		Help: "Average audio callback duration as a percentage of the buffer period",
	})
	CPULoadPeak = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_cpu_load_peak_percent",
		Help: "Peak audio callback load since the last report",
	})
	Playing = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_playing",
		Help: "1 while the engine is attached to the output stream",
	})
	ActiveWaveform = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_active_waveform",
		Help: "Selector id of the active waveform",
	})
	Frequency = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_frequency_hz",
		Help: "Current fundamental frequency",
	})
	Level = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_level",
		Help: "Current output level (0-1)",
	})
)

// Counters
var (
	CallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonegen_callbacks_total",
		Help: "Audio callbacks served",
	})
	SamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonegen_samples_total",
		Help: "Sample frames delivered to the output stream",
	})
	FaultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonegen_faults_total",
		Help: "Callbacks that degraded to silence",
	})
	ParameterChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegen_parameter_changes_total",
		Help: "Accepted parameter changes by parameter",
	}, []string{"param"})
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegen_renders_total",
		Help: "Offline renders by outcome",
	}, []string{"outcome"})
)


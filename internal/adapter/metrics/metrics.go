// Package metrics defines the Prometheus collectors of the feedback-pulse
// backend. Every exported metric lives under the feedback_pulse namespace and
// on a dedicated registry, never the global default one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pscheid92/feedback-pulse/internal/platform/version"
)

const namespace = "feedback_pulse"

// NewRegistry creates the service registry. It carries Go runtime and process
// collectors plus a constant feedback_pulse_build_info series labelled with
// the running version and commit.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(newBuildInfo(version.Get()))
	return reg
}

func newBuildInfo(info version.Info) prometheus.Collector {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Always 1; labels identify the running build.",
		ConstLabels: prometheus.Labels{"version": info.Version, "commit": info.Commit, "go_version": info.GoVersion},
	})
	g.Set(1)
	return g
}

// Handler serves reg. A collector that fails during a scrape does not blank
// the whole page; the failure is counted on the registry instead.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:      reg,
		ErrorHandling: promhttp.ContinueOnError,
	})
}

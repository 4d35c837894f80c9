package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"imgproc.szuro.net/internal/config"
)

const (
	RESULT_OK      = "ok"
	RESULT_FAILED  = "failed"
	RESULT_REFUSED = "refused"
)

var (
	BuildInfo = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "imgproc_build_info",
		Help: "imgproc build information",
		ConstLabels: map[string]string{
			"version":    config.Version,
			"commit":     config.Commit,
			"build_date": config.BuildDate,
		},
	})

	PluginInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "imgproc_plugin_info",
		Help: "Information about loaded plugins",
	}, []string{"plugin_name", "plugin_kind", "plugin_abi"})

	FilterInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgproc_filter_invocations_total",
		Help: "Total number of filter invocations by outcome",
	}, []string{"plugin_name", "result"})

	FilterDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "imgproc_filter_duration_seconds",
		Help:    "Time spent inside filter calls",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"plugin_name"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgproc_cache_lookups_total",
		Help: "Result cache lookups by outcome",
	}, []string{"result"})
)

// Push sends the default registry to a Prometheus Pushgateway. It is a
// no-op when no gateway is configured.
func Push(conf config.MetricsConf) error {
	if conf.Pushgateway == "" {
		return nil
	}
	err := push.New(conf.Pushgateway, conf.Job).
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", conf.Pushgateway, err)
	}
	return nil
}

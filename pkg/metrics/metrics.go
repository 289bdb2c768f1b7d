package metrics

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

type MetricsLevelConfig string

const (
	MetricsLevelNone       MetricsLevelConfig = "none"
	MetricsLevelAggregated MetricsLevelConfig = "aggregated"
	MetricsLevelFull       MetricsLevelConfig = "full"
	// MetricsLevelDefault is the default metrics level.
	MetricsLevelDefault MetricsLevelConfig = MetricsLevelFull
)

var ErrInvalidMetricsLevel = errors.New("invalid metrics level")

// level is read by SourceLabel. It is set once by RegisterMetrics before
// any worker starts.
var level = MetricsLevelDefault

func RegisterMetrics(metricsLevel MetricsLevelConfig) error {
	return RegisterMetricsWith(prometheus.DefaultRegisterer, metricsLevel)
}

func RegisterMetricsWith(reg prometheus.Registerer, metricsLevel MetricsLevelConfig) error {
	switch metricsLevel {
	case MetricsLevelNone:
		// Do not register any metrics
	case MetricsLevelAggregated, MetricsLevelFull:
		reg.MustRegister(FollowerLinesRead, FollowerEntriesDropped, FollowerReopens,
			MultilogFollowers,
			TransportQueueLength, TransportEntriesSent, TransportEntriesEvicted,
			TransportReconnects, TransportHeartbeats,
			StateSaves, AgentInfo)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMetricsLevel, metricsLevel)
	}

	level = metricsLevel

	return nil
}

// SourceLabel returns the value of the "source" label for a file: the full
// path, or only its base name when metrics are aggregated.
func SourceLabel(filename string) string {
	if level == MetricsLevelAggregated {
		return filepath.Base(filename)
	}

	return filename
}

package metrics

import (
	"github.com/crowdsecurity/go-cs-lib/version"
	"github.com/prometheus/client_golang/prometheus"
)

const StateSavesMetricName = "tailship_state_saves_total"

var StateSaves = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: StateSavesMetricName,
		Help: "Total state file checkpoints, by result.",
	},
	[]string{"result"},
)

const AgentInfoMetricName = "tailship_info"

var AgentInfo = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name:        AgentInfoMetricName,
		Help:        "Information about the agent.",
		ConstLabels: prometheus.Labels{"version": version.String()},
	},
)

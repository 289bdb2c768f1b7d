package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const FollowerLinesReadMetricName = "tailship_follower_lines_read_total"

var FollowerLinesRead = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: FollowerLinesReadMetricName,
		Help: "Total lines that were read.",
	},
	[]string{"source"},
)

const FollowerEntriesDroppedMetricName = "tailship_follower_entries_dropped_total"

// Reasons used with FollowerEntriesDropped.
const (
	DropFilter    = "filter"
	DropFormatter = "formatter"
	DropEncoding  = "encoding"
)

var FollowerEntriesDropped = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: FollowerEntriesDroppedMetricName,
		Help: "Total entries dropped before reaching the transport.",
	},
	[]string{"source", "reason"},
)

const FollowerReopensMetricName = "tailship_follower_reopens_total"

var FollowerReopens = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: FollowerReopensMetricName,
		Help: "Total times a followed file was reopened after rotation or error.",
	},
	[]string{"source"},
)

const MultilogFollowersMetricName = "tailship_multilog_followers"

var MultilogFollowers = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: MultilogFollowersMetricName,
		Help: "Number of files currently followed for a multilog pattern.",
	},
	[]string{"pattern"},
)

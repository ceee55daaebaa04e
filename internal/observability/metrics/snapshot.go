package metrics

import (
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const (
	submissionsFamily  = "digigrow_leads_submissions_total"
	followUpFamily     = "digigrow_leads_follow_up_failures_total"
	storeLatencyFamily = "digigrow_leads_store_latency_seconds"
)

// PipelineSnapshot summarizes the lead pipeline counters for the admin dashboard.
// Values are process-local and reset on restart.
type PipelineSnapshot struct {
	Submissions      map[string]int64          `json:"submissions"`
	FollowUpFailures map[string]int64          `json:"follow_up_failures"`
	StoreLatency     map[string]LatencySummary `json:"store_latency"`
}

// LatencySummary describes one store operation's latency histogram.
type LatencySummary struct {
	Count  int64   `json:"count"`
	MeanMs float64 `json:"mean_ms"`
	P95Ms  float64 `json:"p95_ms"`
}

// Snapshot reads the lead metrics back out of gatherer.
func Snapshot(gatherer prometheus.Gatherer) PipelineSnapshot {
	snap := PipelineSnapshot{
		Submissions:      map[string]int64{},
		FollowUpFailures: map[string]int64{},
		StoreLatency:     map[string]LatencySummary{},
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return snap
	}

	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case submissionsFamily:
			sumCounters(mf, "outcome", snap.Submissions)
		case followUpFamily:
			sumCounters(mf, "name", snap.FollowUpFailures)
		case storeLatencyFamily:
			for _, metric := range mf.Metric {
				h := metric.GetHistogram()
				if h == nil || h.GetSampleCount() == 0 {
					continue
				}
				snap.StoreLatency[labelValue(metric, "op")] = summarize(h)
			}
		}
	}
	return snap
}

func sumCounters(mf *dto.MetricFamily, label string, out map[string]int64) {
	for _, metric := range mf.Metric {
		if c := metric.GetCounter(); c != nil {
			out[labelValue(metric, label)] += int64(c.GetValue())
		}
	}
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func summarize(h *dto.Histogram) LatencySummary {
	count := h.GetSampleCount()
	uppers := make([]float64, 0, len(h.Bucket))
	cumulative := make(map[float64]uint64, len(h.Bucket))
	for _, b := range h.Bucket {
		uppers = append(uppers, b.GetUpperBound())
		cumulative[b.GetUpperBound()] = b.GetCumulativeCount()
	}
	sort.Float64s(uppers)

	return LatencySummary{
		Count:  int64(count),
		MeanMs: h.GetSampleSum() / float64(count) * 1000,
		P95Ms:  quantile(0.95, count, uppers, cumulative) * 1000,
	}
}

// quantile interpolates linearly inside the bucket holding the q-th sample.
func quantile(q float64, total uint64, uppers []float64, cumulative map[float64]uint64) float64 {
	if total == 0 || len(uppers) == 0 {
		return 0
	}
	rank := q * float64(total)
	var prevUpper float64
	var prevCount uint64
	for _, upper := range uppers {
		cum := cumulative[upper]
		if float64(cum) >= rank {
			if math.IsInf(upper, 1) || cum == prevCount {
				return prevUpper
			}
			frac := (rank - float64(prevCount)) / float64(cum-prevCount)
			return prevUpper + frac*(upper-prevUpper)
		}
		prevUpper, prevCount = upper, cum
	}
	return prevUpper
}

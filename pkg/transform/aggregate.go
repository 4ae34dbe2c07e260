package transform

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

const (
	minHeartRate = 30
	maxHeartRate = 220
	minRespRate  = 8
	maxRespRate  = 40
	maxDailyStep = 100000
)

// dailyAccumulator groups samples by calendar day.
type dailyAccumulator struct {
	sums   map[time.Time]float64
	counts map[time.Time]int
}

func newDailyAccumulator() *dailyAccumulator {
	return &dailyAccumulator{
		sums:   map[time.Time]float64{},
		counts: map[time.Time]int{},
	}
}

func (a *dailyAccumulator) add(t time.Time, v float64) {
	d := healthdata.DayOf(t)
	a.sums[d] += v
	a.counts[d]++
}

func (a *dailyAccumulator) totals() []healthdata.DailyValue {
	return a.rows(func(sum float64, _ int) float64 { return sum })
}

func (a *dailyAccumulator) means() []healthdata.DailyValue {
	return a.rows(func(sum float64, n int) float64 { return sum / float64(n) })
}

func (a *dailyAccumulator) rows(fn func(sum float64, n int) float64) []healthdata.DailyValue {
	out := make([]healthdata.DailyValue, 0, len(a.sums))
	for d, sum := range a.sums {
		out = append(out, healthdata.DailyValue{Date: d, Value: fn(sum, a.counts[d])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// parseValue accepts finite numbers only.
func parseValue(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// AggregateHeart averages the heart rate samples of each day, ignoring
// readings outside [30, 220] bpm.
func AggregateHeart(records []*healthdata.QuantityRecord) []healthdata.DailyValue {
	acc := newDailyAccumulator()
	for _, r := range records {
		t, err := healthdata.ParseTimestamp(r.CreatedAt)
		if err != nil {
			continue
		}
		v, ok := parseValue(r.Value)
		if !ok || v < minHeartRate || v > maxHeartRate {
			continue
		}
		acc.add(t, v)
	}
	return acc.means()
}

// AggregateResp averages the respiratory rate samples of each day, ignoring
// readings outside [8, 40] breaths per minute.
func AggregateResp(records []*healthdata.CountRecord) []healthdata.DailyValue {
	acc := newDailyAccumulator()
	for _, r := range records {
		t, err := healthdata.ParseTimestamp(r.CreatedAt)
		if err != nil {
			continue
		}
		v, ok := parseValue(r.Count)
		if !ok || v < minRespRate || v > maxRespRate {
			continue
		}
		acc.add(t, v)
	}
	return acc.means()
}

// AggregateSleep sums the minutes of every sleep session created on each
// day. Sessions that do not end after they start are dropped.
func AggregateSleep(records []*healthdata.SleepRecord) []healthdata.DailyValue {
	acc := newDailyAccumulator()
	for _, r := range records {
		created, err := healthdata.ParseTimestamp(r.CreatedAt)
		if err != nil {
			continue
		}
		start, err := healthdata.ParseTimestamp(r.StartDate)
		if err != nil {
			continue
		}
		end, err := healthdata.ParseTimestamp(r.EndDate)
		if err != nil {
			continue
		}
		if !end.After(start) {
			continue
		}
		acc.add(created, end.Sub(start).Minutes())
	}
	return acc.totals()
}

// AggregateSteps sums the step samples of each day, ignoring samples above
// 100,000 steps.
func AggregateSteps(records []*healthdata.CountRecord) []healthdata.DailyValue {
	acc := newDailyAccumulator()
	for _, r := range records {
		t, err := healthdata.ParseTimestamp(r.CreatedAt)
		if err != nil {
			continue
		}
		v, ok := parseValue(r.Count)
		if !ok || v > maxDailyStep {
			continue
		}
		acc.add(t, v)
	}
	return acc.totals()
}

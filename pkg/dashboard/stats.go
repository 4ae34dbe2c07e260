package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

const (
	restingHeartRate = 60
	normalHeartRate  = 90

	goodSleepHours = 7
	fairSleepHours = 6

	respWindow  = 7
	minRespRate = 10
	maxRespRate = 25

	StepGoal       = 7500
	sedentarySteps = 2000
)

var weekdayOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Selection is the year and month shown by the dashboard along with every
// choice available.
type Selection struct {
	Year   int
	Month  time.Month
	Years  []int
	Months []time.Month
}

// Select resolves the requested year and month against the dates present in
// datasets. A zero year selects the latest year and a zero month the first
// month present in the selected year. Months are offered for the selected
// year only.
func Select(datasets Datasets, year int, month time.Month) Selection {
	years := map[int]map[time.Month]bool{}
	for _, rows := range datasets {
		for _, r := range rows {
			if years[r.Year()] == nil {
				years[r.Year()] = map[time.Month]bool{}
			}
			years[r.Year()][r.Month()] = true
		}
	}

	var sel Selection
	for y := range years {
		sel.Years = append(sel.Years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sel.Years)))

	sel.Year = year
	if sel.Year == 0 && len(sel.Years) > 0 {
		sel.Year = sel.Years[0]
	}
	for m := range years[sel.Year] {
		sel.Months = append(sel.Months, m)
	}
	sort.Slice(sel.Months, func(i, j int) bool { return sel.Months[i] < sel.Months[j] })

	sel.Month = month
	if sel.Month == 0 && len(sel.Months) > 0 {
		sel.Month = sel.Months[0]
	}
	return sel
}

// Filter returns the rows dated in year and month.
func Filter(rows []healthdata.DailyValue, year int, month time.Month) []healthdata.DailyValue {
	var out []healthdata.DailyValue
	for _, r := range rows {
		if r.Year() == year && r.Month() == month {
			out = append(out, r)
		}
	}
	return out
}

type ZoneCount struct {
	Zone string
	Days int
}

// Distribution summarizes the values of one weekday.
type Distribution struct {
	Weekday time.Weekday
	Days    int
	Min     float64
	Q1      float64
	Median  float64
	Q3      float64
	Max     float64
}

type HeartStats struct {
	Days     int
	Average  float64
	Min      float64
	Max      float64
	Series   []healthdata.DailyValue
	Zones    []ZoneCount
	Weekdays []Distribution
}

func HeartZone(bpm float64) string {
	switch {
	case bpm < restingHeartRate:
		return "Resting"
	case bpm <= normalHeartRate:
		return "Normal"
	}
	return "High"
}

func NewHeartStats(rows []healthdata.DailyValue) HeartStats {
	s := HeartStats{Days: len(rows), Series: rows}
	if len(rows) == 0 {
		return s
	}
	s.Average, s.Min, s.Max = summarize(rows)

	zones := map[string]int{}
	for _, r := range rows {
		zones[HeartZone(r.Value)]++
	}
	for _, zone := range []string{"Resting", "Normal", "High"} {
		if zones[zone] > 0 {
			s.Zones = append(s.Zones, ZoneCount{Zone: zone, Days: zones[zone]})
		}
	}

	byWeekday := groupByWeekday(rows)
	for _, wd := range weekdayOrder {
		values := byWeekday[wd]
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)
		s.Weekdays = append(s.Weekdays, Distribution{
			Weekday: wd,
			Days:    len(values),
			Min:     values[0],
			Q1:      quantile(values, 0.25),
			Median:  quantile(values, 0.5),
			Q3:      quantile(values, 0.75),
			Max:     values[len(values)-1],
		})
	}
	return s
}

type WeekAverage struct {
	Week           int
	AverageMinutes float64
}

type SleepStats struct {
	Days         int
	AverageHours float64
	// Quality is empty when there is no sleep data.
	Quality string
	Series  []healthdata.DailyValue
	Weeks   []WeekAverage
	Best    *healthdata.DailyValue
}

func SleepQuality(hours float64) string {
	switch {
	case hours >= goodSleepHours:
		return "Good"
	case hours >= fairSleepHours:
		return "Fair"
	}
	return "Poor"
}

func NewSleepStats(rows []healthdata.DailyValue) SleepStats {
	s := SleepStats{Days: len(rows), Series: rows}
	if len(rows) == 0 {
		return s
	}
	avg, _, _ := summarize(rows)
	s.AverageHours = avg / 60
	s.Quality = SleepQuality(s.AverageHours)

	sums := map[int]float64{}
	counts := map[int]int{}
	for i, r := range rows {
		_, week := r.Date.ISOWeek()
		sums[week] += r.Value
		counts[week]++
		if s.Best == nil || r.Value > s.Best.Value {
			s.Best = &rows[i]
		}
	}
	for week, sum := range sums {
		s.Weeks = append(s.Weeks, WeekAverage{Week: week, AverageMinutes: sum / float64(counts[week])})
	}
	sort.Slice(s.Weeks, func(i, j int) bool { return s.Weeks[i].Week < s.Weeks[j].Week })
	return s
}

type RespPoint struct {
	Date  time.Time
	Value float64
	// Rolling is the mean of this day and the six before it, nil until
	// seven days are available.
	Rolling *float64
}

type RespStats struct {
	Days     int
	Series   []RespPoint
	Abnormal []healthdata.DailyValue
}

func NewRespStats(rows []healthdata.DailyValue) RespStats {
	s := RespStats{Days: len(rows)}
	sum := 0.0
	for i, r := range rows {
		p := RespPoint{Date: r.Date, Value: r.Value}
		sum += r.Value
		if i >= respWindow {
			sum -= rows[i-respWindow].Value
		}
		if i >= respWindow-1 {
			mean := sum / respWindow
			p.Rolling = &mean
		}
		s.Series = append(s.Series, p)
		if r.Value < minRespRate || r.Value > maxRespRate {
			s.Abnormal = append(s.Abnormal, r)
		}
	}
	return s
}

type StepWeekday struct {
	Weekday  time.Weekday
	Days     int
	GoalHits int
	Average  float64
}

type StepStats struct {
	Days       int
	Goal       int
	GoalMet    int
	GoalMissed int
	Series     []healthdata.DailyValue
	Weekdays   []StepWeekday
	Sedentary  []healthdata.DailyValue
}

func NewStepStats(rows []healthdata.DailyValue) StepStats {
	s := StepStats{Days: len(rows), Goal: StepGoal, Series: rows}
	for _, r := range rows {
		if r.Value >= StepGoal {
			s.GoalMet++
		} else {
			s.GoalMissed++
		}
		if r.Value < sedentarySteps {
			s.Sedentary = append(s.Sedentary, r)
		}
	}

	byWeekday := groupByWeekday(rows)
	for _, wd := range weekdayOrder {
		values := byWeekday[wd]
		if len(values) == 0 {
			continue
		}
		day := StepWeekday{Weekday: wd, Days: len(values)}
		total := 0.0
		for _, v := range values {
			total += v
			if v >= StepGoal {
				day.GoalHits++
			}
		}
		day.Average = total / float64(len(values))
		s.Weekdays = append(s.Weekdays, day)
	}
	return s
}

// Report is everything the dashboard shows for one month.
type Report struct {
	Selection
	Heart HeartStats
	Sleep SleepStats
	Resp  RespStats
	Steps StepStats
}

func NewReport(datasets Datasets, year int, month time.Month) Report {
	sel := Select(datasets, year, month)
	return Report{
		Selection: sel,
		Heart:     NewHeartStats(Filter(datasets[healthdata.Heart], sel.Year, sel.Month)),
		Sleep:     NewSleepStats(Filter(datasets[healthdata.Sleep], sel.Year, sel.Month)),
		Resp:      NewRespStats(Filter(datasets[healthdata.Resp], sel.Year, sel.Month)),
		Steps:     NewStepStats(Filter(datasets[healthdata.Step], sel.Year, sel.Month)),
	}
}

func summarize(rows []healthdata.DailyValue) (avg, min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	total := 0.0
	for _, r := range rows {
		total += r.Value
		min = math.Min(min, r.Value)
		max = math.Max(max, r.Value)
	}
	return total / float64(len(rows)), min, max
}

func groupByWeekday(rows []healthdata.DailyValue) map[time.Weekday][]float64 {
	out := map[time.Weekday][]float64{}
	for _, r := range rows {
		out[r.Date.Weekday()] = append(out[r.Date.Weekday()], r.Value)
	}
	return out
}

// quantile uses linear interpolation between the closest ranks of the
// sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

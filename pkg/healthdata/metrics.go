package healthdata

import (
	"fmt"
	"strings"
)

// Metric identifies one of the health measurements carried through the
// pipeline. Its value doubles as the dataset (table) name in the transformed
// zone.
type Metric string

const (
	Heart Metric = "heart"
	Sleep Metric = "sleep"
	Step  Metric = "step"
	Resp  Metric = "resp"
)

// Definition ties a metric to the names it has in each zone.
type Definition struct {
	Metric Metric
	// RecordType is the HealthKit type identifier of the <Record> elements
	// extracted for this metric.
	RecordType string
	// CSVFile is the object name of the structured records in the processed
	// zone.
	CSVFile string
	// ValueColumn is the aggregated column of the columnar dataset.
	ValueColumn string
	Title       string
	Unit        string
}

var definitions = []Definition{
	{
		Metric:      Heart,
		RecordType:  "HKQuantityTypeIdentifierHeartRate",
		CSVFile:     "Heart_Data.csv",
		ValueColumn: "avg_heart_rate",
		Title:       "Heart",
		Unit:        "bpm",
	},
	{
		Metric:      Sleep,
		RecordType:  "HKCategoryTypeIdentifierSleepAnalysis",
		CSVFile:     "Sleep_Data.csv",
		ValueColumn: "total_sleep_minutes",
		Title:       "Sleep",
		Unit:        "minutes",
	},
	{
		Metric:      Resp,
		RecordType:  "HKQuantityTypeIdentifierRespiratoryRate",
		CSVFile:     "Resp_Data.csv",
		ValueColumn: "avg_resp_rate",
		Title:       "Respiration",
		Unit:        "breaths/min",
	},
	{
		Metric:      Step,
		RecordType:  "HKQuantityTypeIdentifierStepCount",
		CSVFile:     "Step_Data.csv",
		ValueColumn: "total_steps",
		Title:       "Steps",
		Unit:        "steps",
	},
}

// Definitions returns every metric definition in display order.
func Definitions() []Definition {
	defs := make([]Definition, len(definitions))
	copy(defs, definitions)
	return defs
}

// Lookup returns the definition for m.
func Lookup(m Metric) (Definition, bool) {
	for _, def := range definitions {
		if def.Metric == m {
			return def, true
		}
	}
	return Definition{}, false
}

// LookupRecordType returns the definition extracting records of the given
// HealthKit type.
func LookupRecordType(recordType string) (Definition, bool) {
	for _, def := range definitions {
		if def.RecordType == recordType {
			return def, true
		}
	}
	return Definition{}, false
}

func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Lookup(m); !ok {
		return "", fmt.Errorf("unknown metric %q, must be one of: heart, sleep, resp, step", s)
	}
	return m, nil
}

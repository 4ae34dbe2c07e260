package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

// progressInterval is how many rows of one metric are parsed between
// progress log lines.
const progressInterval = 50000

// Records holds the structured records of every metric found in an export.
type Records struct {
	Heart []*healthdata.QuantityRecord
	Sleep []*healthdata.SleepRecord
	Step  []*healthdata.CountRecord
	Resp  []*healthdata.CountRecord
}

// Len returns the number of records collected for m.
func (r *Records) Len(m healthdata.Metric) int {
	switch m {
	case healthdata.Heart:
		return len(r.Heart)
	case healthdata.Sleep:
		return len(r.Sleep)
	case healthdata.Step:
		return len(r.Step)
	case healthdata.Resp:
		return len(r.Resp)
	}
	return 0
}

// Parse reads an Apple Health export in a single streaming pass and collects
// the <Record> elements of every known metric. Any XML error is returned.
// ctx is checked every progressInterval records.
func Parse(ctx context.Context, r io.Reader, logger log.FieldLogger) (*Records, error) {
	records := &Records{}
	decoder := xml.NewDecoder(r)
	seen := 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to parse export at offset %d: %v", decoder.InputOffset(), err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Record" {
			continue
		}
		if seen%progressInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("parsing stopped after %d records: %w", seen, err)
			}
		}
		seen++
		attrs := attrMap(se.Attr)
		def, ok := healthdata.LookupRecordType(attrs["type"])
		if !ok {
			continue
		}
		records.add(def.Metric, attrs)
		if n := records.Len(def.Metric); n%progressInterval == 0 {
			logger.Infof("%s - parsed %d rows...", def.CSVFile, n)
		}
	}
	return records, nil
}

func (r *Records) add(m healthdata.Metric, attrs map[string]string) {
	switch m {
	case healthdata.Heart:
		r.Heart = append(r.Heart, &healthdata.QuantityRecord{
			CreatedAt: attrOrDefault(attrs, "creationDate", ""),
			Value:     attrOrDefault(attrs, "value", "0"),
		})
	case healthdata.Sleep:
		r.Sleep = append(r.Sleep, &healthdata.SleepRecord{
			CreatedAt: attrOrDefault(attrs, "creationDate", ""),
			StartDate: attrOrDefault(attrs, "startDate", ""),
			EndDate:   attrOrDefault(attrs, "endDate", ""),
		})
	case healthdata.Step:
		r.Step = append(r.Step, &healthdata.CountRecord{
			CreatedAt: attrOrDefault(attrs, "creationDate", ""),
			Count:     attrOrDefault(attrs, "value", "0"),
		})
	case healthdata.Resp:
		r.Resp = append(r.Resp, &healthdata.CountRecord{
			CreatedAt: attrOrDefault(attrs, "creationDate", ""),
			Count:     attrOrDefault(attrs, "value", "0"),
		})
	}
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

func attrOrDefault(attrs map[string]string, name, def string) string {
	if v, ok := attrs[name]; ok {
		return v
	}
	return def
}

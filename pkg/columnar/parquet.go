// Package columnar encodes daily metric datasets as Parquet files through
// Arrow and decodes them back.
package columnar

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

const (
	CreatedAtColumn = "created_at"
	YearColumn      = "year"
	MonthColumn     = "month"
	DayColumn       = "day"
)

// Column describes one column of a dataset in the type system of the
// catalog.
type Column struct {
	Name string
	Type string
}

// Schema returns the Arrow schema of the dataset for def.
func Schema(def healthdata.Definition) *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: CreatedAtColumn, Type: arrow.FixedWidthTypes.Timestamp_ms, Nullable: false},
		{Name: def.ValueColumn, Type: arrow.PrimitiveTypes.Float64, Nullable: false},
		{Name: YearColumn, Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: MonthColumn, Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: DayColumn, Type: arrow.PrimitiveTypes.Int64, Nullable: false},
	}, nil)
}

// CatalogColumns returns the columns of the dataset for def as Hive/Athena
// types.
func CatalogColumns(def healthdata.Definition) []Column {
	return []Column{
		{Name: CreatedAtColumn, Type: "timestamp"},
		{Name: def.ValueColumn, Type: "double"},
		{Name: YearColumn, Type: "bigint"},
		{Name: MonthColumn, Type: "bigint"},
		{Name: DayColumn, Type: "bigint"},
	}
}

// Encode writes rows as a snappy compressed Parquet file.
func Encode(def healthdata.Definition, rows []healthdata.DailyValue) ([]byte, error) {
	schema := Schema(def)
	mem := memory.NewGoAllocator()

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	createdAt := b.Field(0).(*array.TimestampBuilder)
	value := b.Field(1).(*array.Float64Builder)
	year := b.Field(2).(*array.Int64Builder)
	month := b.Field(3).(*array.Int64Builder)
	day := b.Field(4).(*array.Int64Builder)
	for _, row := range rows {
		createdAt.Append(arrow.Timestamp(row.Date.UnixMilli()))
		value.Append(row.Value)
		year.Append(int64(row.Year()))
		month.Append(int64(row.Month()))
		day.Append(int64(row.Day()))
	}

	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithCreatedBy("health-pipeline"),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	var buf bytes.Buffer
	w, err := pqarrow.NewFileWriter(schema, &buf, props, arrowProps)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %v", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write %s rows: %v", def.Metric, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet writer: %v", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a Parquet file written by Encode, or any file holding the
// created_at and value columns of def.
func Decode(ctx context.Context, def healthdata.Definition, data []byte) ([]healthdata.DailyValue, error) {
	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s parquet: %v", def.Metric, err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	createdAtIdx := schema.FieldIndices(CreatedAtColumn)
	valueIdx := schema.FieldIndices(def.ValueColumn)
	if len(createdAtIdx) == 0 || len(valueIdx) == 0 {
		return nil, fmt.Errorf("%s parquet is missing column %s or %s", def.Metric, CreatedAtColumn, def.ValueColumn)
	}

	tr := array.NewTableReader(tbl, 0)
	defer tr.Release()

	var rows []healthdata.DailyValue
	for tr.Next() {
		rec := tr.Record()
		dates, err := timeColumn(rec.Column(createdAtIdx[0]))
		if err != nil {
			return nil, err
		}
		values, err := floatColumn(rec.Column(valueIdx[0]))
		if err != nil {
			return nil, err
		}
		for i := range dates {
			rows = append(rows, healthdata.DailyValue{Date: dates[i], Value: values[i]})
		}
	}
	return rows, tr.Err()
}

func timeColumn(col arrow.Array) ([]time.Time, error) {
	switch arr := col.(type) {
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		out := make([]time.Time, arr.Len())
		for i := range out {
			out[i] = healthdata.DayOf(arr.Value(i).ToTime(unit))
		}
		return out, nil
	case *array.Date32:
		out := make([]time.Time, arr.Len())
		for i := range out {
			out[i] = arr.Value(i).ToTime()
		}
		return out, nil
	case *array.String:
		out := make([]time.Time, arr.Len())
		for i := range out {
			t, err := healthdata.ParseTimestamp(arr.Value(i))
			if err != nil {
				return nil, err
			}
			out[i] = healthdata.DayOf(t)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported %s column type %s", CreatedAtColumn, col.DataType())
}

func floatColumn(col arrow.Array) ([]float64, error) {
	out := make([]float64, col.Len())
	switch arr := col.(type) {
	case *array.Float64:
		copy(out, arr.Float64Values())
	case *array.Float32:
		for i := range out {
			out[i] = float64(arr.Value(i))
		}
	case *array.Int64:
		for i := range out {
			out[i] = float64(arr.Value(i))
		}
	default:
		return nil, fmt.Errorf("unsupported value column type %s", col.DataType())
	}
	return out, nil
}

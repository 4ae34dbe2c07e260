package columnar

import (
	"path"

	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

// DatasetPrefix is the directory of the transformed zone holding the
// dataset of def. It always ends in a slash.
func DatasetPrefix(prefix string, def healthdata.Definition) string {
	return path.Join(prefix, string(def.Metric)) + "/"
}

// DatasetKey is the object key of the Parquet file of def.
func DatasetKey(prefix string, def healthdata.Definition) string {
	return path.Join(prefix, string(def.Metric), string(def.Metric)+".parquet")
}

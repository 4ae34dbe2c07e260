package hive

import (
	"fmt"
	"sort"
	"strings"
)

func generateCreateDatabaseSQL(params DatabaseParameters, ignoreExists bool) string {
	ifNotExists := ""
	if ignoreExists {
		ifNotExists = "IF NOT EXISTS "
	}
	location := ""
	if params.Location != "" {
		location = fmt.Sprintf(" LOCATION '%s'", escapeString(params.Location))
	}
	return fmt.Sprintf("CREATE DATABASE %s%s%s", ifNotExists, escapeIdentifier(params.Name), location)
}

func generateDropTableSQL(dbName, tableName string, ignoreNotExists bool) string {
	ifExists := ""
	if ignoreNotExists {
		ifExists = "IF EXISTS "
	}
	return fmt.Sprintf("DROP TABLE %s%s", ifExists, tableIdentifier(dbName, tableName))
}

// generateCreateTableSQL returns a CREATE TABLE statement. If External is
// set, an external table over Location is created.
func generateCreateTableSQL(params TableParameters, ignoreExists bool) string {
	tableType := ""
	if params.External {
		tableType = "EXTERNAL "
	}

	ifNotExists := ""
	if ignoreExists {
		ifNotExists = "IF NOT EXISTS "
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE %sTABLE %s%s (%s)", tableType, ifNotExists, tableIdentifier(params.Database, params.Name), fmtColumnText(params.Columns))
	if len(params.PartitionedBy) != 0 {
		fmt.Fprintf(&b, " PARTITIONED BY (%s)", fmtColumnText(params.PartitionedBy))
	}
	if params.FileFormat != "" {
		fmt.Fprintf(&b, " STORED AS %s", params.FileFormat)
	}
	if params.Location != "" {
		fmt.Fprintf(&b, " LOCATION '%s'", escapeString(params.Location))
	}
	if len(params.TableProperties) != 0 {
		fmt.Fprintf(&b, " TBLPROPERTIES (%s)", fmtTableProperties(params.TableProperties))
	}
	return b.String()
}

// fmtColumnText returns a Hive CREATE column string from a slice of name/type pairs. For example, "`columnName` string".
func fmtColumnText(columns []Column) string {
	c := make([]string, len(columns))
	for i, col := range columns {
		c[i] = escapeColumn(col.Name, col.Type)
	}
	return strings.Join(c, ", ")
}

func escapeColumn(columnName, columnType string) string {
	return fmt.Sprintf("%s %s", escapeIdentifier(columnName), columnType)
}

func escapeIdentifier(name string) string {
	return "`" + strings.Replace(name, "`", "``", -1) + "`"
}

func tableIdentifier(dbName, tableName string) string {
	if dbName == "" {
		return escapeIdentifier(tableName)
	}
	return escapeIdentifier(dbName) + "." + escapeIdentifier(tableName)
}

func escapeString(s string) string {
	return strings.Replace(s, "'", "\\'", -1)
}

// fmtTableProperties formats properties sorted by key so the generated DDL
// is stable.
func fmtTableProperties(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("'%s'='%s'", escapeString(k), escapeString(props[k]))
	}
	return strings.Join(pairs, ", ")
}

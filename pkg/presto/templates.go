package presto

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig"
)

// NewQueryTemplate parses a SQL template. Templates use "{|" and "|}" as
// delimiters so they can't be confused with SQL, and have the sprig
// functions plus a few SQL helpers available.
func NewQueryTemplate(name, queryTemplate string) (*template.Template, error) {
	var templateFuncMap = template.FuncMap{
		"ident":     QuoteIdentifier,
		"tableName": FullyQualifiedTableName,
	}

	tmpl, err := template.New(name).Delims("{|", "|}").Funcs(sprig.TxtFuncMap()).Funcs(templateFuncMap).Parse(queryTemplate)
	if err != nil {
		return nil, fmt.Errorf("error parsing query: %v", err)
	}
	return tmpl, nil
}

func RenderQuery(query string, tmplCtx interface{}) (string, error) {
	tmpl, err := NewQueryTemplate("query", query)
	if err != nil {
		return "", err
	}
	return ExecuteQueryTemplate(tmpl, tmplCtx)
}

func ExecuteQueryTemplate(tmpl *template.Template, tmplCtx interface{}) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, tmplCtx)
	if err != nil {
		return "", fmt.Errorf("error executing template: %v", err)
	}
	return buf.String(), nil
}

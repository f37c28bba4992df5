package tstore

import (
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"

	"github.com/invoiceflow/invoiceflow/pkg/strcase"
)

// Record is a single row with external (camelCase) field names. Values hold
// whatever the driver decoded: strings, numerics, time.Time, UUID bytes.
type Record map[string]any

// columnPattern is the shape every mapped column name must have. Field
// names arrive from API payloads, so anything that does not survive the
// camel-to-snake mapping as a plain identifier is rejected before it can
// reach SQL text.
var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// toColumn maps an external field name to its column and validates it.
func toColumn(field string) (string, error) {
	col := strcase.ToSnake(field)
	if !columnPattern.MatchString(col) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFieldName, field)
	}
	return col, nil
}

// sanitizeColumn is toColumn for trusted, construction-time names (primary
// key columns); it panics instead of returning an error because a bad value
// is a programming mistake, not bad input.
func sanitizeColumn(column string) string {
	if !columnPattern.MatchString(column) {
		panic(fmt.Sprintf("tstore: invalid column name %q", column))
	}
	return column
}

// scanRecords drains rows into Records, mapping column names back to the
// external camelCase convention.
func scanRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := []Record{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		rec := make(Record, len(fields))
		for i, f := range fields {
			rec[strcase.ToCamel(f.Name)] = values[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

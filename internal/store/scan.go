package store

import "database/sql"

// row is satisfied by both *sql.Row and *sql.Rows
type row interface {
	Scan(dest ...any) error
}

// scanRowWithColumns scans a single row with a known column order into a map
func scanRowWithColumns(r row, columns []string) (map[string]any, error) {
	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := r.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	record := make(map[string]any, len(columns))
	for i, col := range columns {
		record[col] = normalizeScanned(values[i])
	}
	return record, nil
}

// scanRows scans every row into a slice of maps
func scanRows(rows *sql.Rows, columns []string) ([]map[string]any, error) {
	var results []map[string]any

	for rows.Next() {
		record, err := scanRowWithColumns(rows, columns)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// normalizeScanned flattens driver byte slices to strings so label matching
// and formatting see one shape regardless of driver
func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

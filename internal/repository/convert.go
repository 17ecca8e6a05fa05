package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// DatetimeFormat is the layout datetime columns are written in.
const DatetimeFormat = "2006-01-02 15:04:05"

// datetimeLayouts are the accepted layouts of datetime strings.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	DatetimeFormat,
	"2006-01-02",
}

// convertRow converts every value of row by its column type.
func convertRow(row types.Row, columnTypes types.ColumnTypes) (types.Row, error) {
	out := make(types.Row, len(row))
	for col, v := range row {
		cv, err := convertValue(col, v, columnTypes[col])
		if err != nil {
			return nil, err
		}
		out[col] = cv
	}
	return out, nil
}

// convertValue prepares v for binding to a column of the given type. Nil
// stays nil, as does an empty string in an integer or datetime column. An
// empty type binds v unchanged.
func convertValue(col string, v any, columnType string) (any, error) {
	if columnType != "" && !types.IsValidColumnType(columnType) {
		return nil, fmt.Errorf("column %q: %w: %q", col, types.ErrInvalidColumnType, columnType)
	}
	if v == nil {
		return nil, nil
	}
	switch columnType {
	case "":
		return v, nil
	case types.ColumnString:
		return toString(v)
	case types.ColumnInteger:
		if v == "" {
			return nil, nil
		}
		if i, ok := types.ToInt(v); ok {
			return i, nil
		}
	case types.ColumnBoolean:
		if b, ok := types.ToBool(v); ok {
			return b, nil
		}
	case types.ColumnDatetime:
		if v == "" {
			return nil, nil
		}
		if s, ok := toDatetime(v); ok {
			return s, nil
		}
	case types.ColumnJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("column %q: encoding json: %w", col, err)
		}
		return string(b), nil
	}
	return nil, fmt.Errorf("column %q: cannot convert %T to %s", col, v, columnType)
}

func toString(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case time.Time:
		return s.Format(DatetimeFormat), nil
	case map[string]any, types.Fields, []any:
		b, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return fmt.Sprint(s), nil
	}
}

func toDatetime(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(DatetimeFormat), true
	case string:
		for _, layout := range datetimeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.Format(DatetimeFormat), true
			}
		}
	}
	return "", false
}

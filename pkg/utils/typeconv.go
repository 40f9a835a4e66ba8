package utils

import (
	"fmt"
	"strconv"
)

// ToInt64 coerces the dynamic values that different drivers hand back for
// integer columns (SQLite, SQL Server, Mongo documents, CSV cells).
func ToInt64(val interface{}) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", val)
	}
}

// ToFloat coerces numeric values to float64. Non-numeric input is reported as
// an error so callers can apply their own drop policy.
func ToFloat(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", val)
	}
}

// ToString renders a driver value as a string. Byte slices are common with
// SQL drivers and are converted directly instead of via fmt.
func ToString(val interface{}) string {
	if b, ok := val.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", val)
}

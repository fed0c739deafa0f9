package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotInteger is returned by ParseInt when a value cannot be read as an integer.
var ErrNotInteger = errors.New("value is not an integer")

// ParseInt converts a table cell to int64 using explicit type switching.
// Integral floats (e.g. 3.0, "3.0") are accepted; fractional, non-finite or out of range
// values, booleans and nil are rejected with ErrNotInteger.
func ParseInt(val any) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint:
		return fromUint(uint64(v))
	case uint64:
		return fromUint(v)
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotInteger, v.String())
		}
		return fromFloat(f)
	case string:
		return parseString(v)
	case []byte:
		return parseString(string(v))
	default:
		return 0, fmt.Errorf("%w: %v (%T)", ErrNotInteger, val, val)
	}
}

// parseString reads decimal integers and integral decimal floats such as "3.0".
func parseString(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, s)
	}
	return fromFloat(f)
}

func fromUint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64", ErrNotInteger, v)
	}
	return int64(v), nil
}

func fromFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v", ErrNotInteger, f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v overflows int64", ErrNotInteger, f)
	}
	return int64(f), nil
}

// IsInteger reports whether val is one of Go's integer kinds. Strings and floats
// holding integral values do not count.
func IsInteger(val any) bool {
	switch val.(type) {
	case int, int64, int32, int16, int8, uint, uint32, uint16, uint8:
		return true
	case uint64:
		return val.(uint64) <= math.MaxInt64
	default:
		return false
	}
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
// It handles bool, numeric types (1=true), and strings ("1", "true").
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		i, err := ParseInt(v)
		return err == nil && i == 1
	case string:
		return v == "1" || strings.ToLower(v) == "true"
	case []byte:
		s := string(v)
		return s == "1" || strings.ToLower(s) == "true"
	default:
		return false
	}
}

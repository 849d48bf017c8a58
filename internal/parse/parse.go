// Package parse turns user-typed text into typed values according to a
// parameter's declared data shape and data type.
package parse

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/value"
)

const (
	msgNoValue      = "No value"
	msgMissingValue = "Missing value"
	msgEmptyRow     = "Empty row"
)

// ParseError reports malformed user input. Message is shown to the user as is.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

func failf(format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// Parse converts text into a Value of the given shape and type.
func Parse(text string, shape models.DataShape, typ models.DataType) (value.Value, error) {
	switch shape {
	case models.ShapeScalar:
		return scalar(text, typ, msgNoValue)
	case models.ShapeList:
		return list(text, typ, msgNoValue)
	case models.ShapeMatrix:
		return matrix(text, typ, msgNoValue)
	default:
		return value.Value{}, failf("Unsupported dataShape: %s", shape)
	}
}

// Format renders v as text that Parse accepts for v's shape.
func Format(v value.Value) string {
	return v.Text()
}

func scalar(text string, typ models.DataType, noValue string) (value.Value, error) {
	if text == "" {
		return value.Value{}, failf("%s", noValue)
	}
	data := strings.TrimSpace(text)

	switch typ {
	case models.TypeString:
		if data == "" {
			return value.Value{}, failf("%s", noValue)
		}
		return value.Str(data), nil
	case models.TypeInt:
		if n, err := strconv.ParseInt(data, 10, 64); err == nil {
			return value.Int(n), nil
		}
		// Whole floats such as "3.0" are accepted too.
		f, err := strconv.ParseFloat(data, 64)
		if err != nil || math.Mod(f, 1) != 0 || f < math.MinInt64 || f >= math.MaxInt64 {
			return value.Value{}, failf("Couldn't parse at %q", data)
		}
		return value.Int(int64(f)), nil
	case models.TypeFloat:
		f, err := strconv.ParseFloat(data, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return value.Value{}, failf("Couldn't parse at %q", data)
		}
		return value.Float(f), nil
	case models.TypeBool:
		switch data {
		case "true":
			return value.Bool(true), nil
		case "false":
			return value.Bool(false), nil
		}
		return value.Value{}, failf("Couldn't parse at %q", data)
	default:
		return value.Value{}, failf("Unsupported dataType: %s", typ)
	}
}

func list(text string, typ models.DataType, noValue string) (value.Value, error) {
	if strings.TrimSpace(text) == "" {
		return value.Value{}, failf("%s", noValue)
	}
	if strings.TrimSpace(strings.ReplaceAll(text, ",", "")) == "" {
		return value.Value{}, failf("%s", noValue)
	}

	parts := strings.Split(strings.TrimSpace(text), ",")
	items := make([]value.Value, 0, len(parts))
	for _, part := range parts {
		item, err := scalar(part, typ, msgMissingValue)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, item)
	}
	return value.List(items...), nil
}

// matrix treats ',' and ';' alike when checking for empty input; each row is
// then checked on its own.
func matrix(text string, typ models.DataType, noValue string) (value.Value, error) {
	if strings.TrimSpace(text) == "" {
		return value.Value{}, failf("%s", noValue)
	}
	stripped := strings.NewReplacer(",", "", ";", "").Replace(text)
	if strings.TrimSpace(stripped) == "" {
		return value.Value{}, failf("%s", noValue)
	}

	rows := strings.Split(strings.TrimSpace(text), ";")
	out := make([]value.Value, 0, len(rows))
	for _, row := range rows {
		item, err := list(row, typ, msgEmptyRow)
		if err != nil {
			return value.Value{}, err
		}
		out = append(out, item)
	}
	return value.List(out...), nil
}

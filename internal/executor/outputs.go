package executor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/value"
)

// DecodeOutputs turns a script's return value into outputs. ret is either
// JSON text (string or []byte) or a value that marshals to a JSON object.
// Fields keep their order in the object; null fields become "".
func DecodeOutputs(ret any) ([]models.DataValue, error) {
	var data []byte
	switch v := ret.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		data = b
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("result must be a JSON object, got %s", abbreviate(data))
	}

	outputs := []models.DataValue{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode result field %q: %w", key, err)
		}
		v, err := value.FromJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("result field %q: %w", key, err)
		}
		if !v.IsSet() {
			v = value.Str("")
		}
		outputs = append(outputs, models.DataValue{Name: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return outputs, nil
}

func abbreviate(b []byte) string {
	const limit = 64
	b = bytes.TrimSpace(b)
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}

package xjson

import (
	stdjson "encoding/json"

	gjson "github.com/goccy/go-json"
)

// Single import site for the JSON codec used by snapshots, execution records and
// task payloads.

func Marshal(v interface{}) ([]byte, error) {
	return gjson.Marshal(v)
}

func MarshalIndent(v interface{}) ([]byte, error) {
	return gjson.MarshalIndent(v, "", "  ")
}

func Unmarshal(data []byte, v interface{}) error {
	return gjson.Unmarshal(data, v)
}

// ToMap round-trips v through JSON so structured values can travel in
// map[string]interface{} payloads.
func ToMap(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		return m, nil
	}
	data, err := gjson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := gjson.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RawMessage is kept compatible with encoding/json's RawMessage type.
type RawMessage = stdjson.RawMessage

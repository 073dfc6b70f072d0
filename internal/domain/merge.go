package domain

import (
	"dario.cat/mergo"
)

// MergeParameters layers overrides on top of defaults without mutating either.
// Keys present in overrides win.
func MergeParameters(defaults, overrides map[string]interface{}) (map[string]interface{}, error) {
	merged := CloneMetadata(defaults)
	if merged == nil {
		merged = make(map[string]interface{})
	}
	if len(overrides) == 0 {
		return merged, nil
	}

	if err := mergo.Merge(&merged, CloneMetadata(overrides), mergo.WithOverride); err != nil {
		return nil, NewValidationError("parameters", err.Error())
	}
	return merged, nil
}

func StringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func BoolParam(params map[string]interface{}, key string, fallback bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}

func StringSliceParam(params map[string]interface{}, key string) []string {
	switch v := params[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

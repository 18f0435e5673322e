package core

import "encoding/json"

// SplitExtra returns the keys of the JSON object data that are not in known,
// or nil when there are none.
func SplitExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, key := range known {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// MergeExtra adds extra keys to the encoded JSON object data. Keys already
// present in data win.
func MergeExtra(data []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage, len(extra)+len(known))
	for key, value := range extra {
		merged[key] = value
	}
	for key, value := range known {
		merged[key] = value
	}
	return json.Marshal(merged)
}

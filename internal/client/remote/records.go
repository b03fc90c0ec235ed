package remote

import (
	"encoding/json"
	"fmt"
)

type idOnly struct {
	ID string `json:"id"`
}

// RecordOf wraps one JSON object as a Record, reading its "id" field.
func RecordOf(data json.RawMessage) (Record, error) {
	var v idOnly
	if err := json.Unmarshal(data, &v); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return Record{ID: v.ID, Data: data}, nil
}

// RecordsFromJSON splits a JSON array of objects into Records.
func RecordsFromJSON(data []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return RecordsFromItems(items)
}

func RecordsFromItems(items []json.RawMessage) ([]Record, error) {
	out := make([]Record, 0, len(items))
	for _, it := range items {
		r, err := RecordOf(it)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Items returns the raw JSON objects of recs, in order.
func Items(recs []Record) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Data)
	}
	return out
}

// ToJSON encodes recs as a JSON array. A nil or empty slice encodes as [].
func ToJSON(recs []Record) ([]byte, error) {
	return json.Marshal(Items(recs))
}

// IDs returns the ids of recs, in order.
func IDs(recs []Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

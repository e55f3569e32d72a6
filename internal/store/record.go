package store

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func recordFloat(rec *neo4j.Record, key string) float64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func recordStrings(rec *neo4j.Record, key string) []string {
	v, _ := rec.Get(key)
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, x := range list {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// recordTime accepts the string layout this package writes as well as native
// temporal values written by other clients.
func recordTime(rec *neo4j.Record, key string) (time.Time, error) {
	v, _ := rec.Get(key)
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case neo4j.LocalDateTime:
		return t.Time().UTC(), nil
	case string:
		if t == "" {
			return time.Time{}, nil
		}
		parsed, err := time.Parse(timeLayout, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse %s %q: %w", key, t, err)
		}
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported %s value of type %T", key, v)
}

package model

import "time"

// BulkFilter selects relationships for batch deletion. An empty filter matches
// nothing unless All is set.
type BulkFilter struct {
	GroupID     string         `json:"group_id,omitempty"`
	Types       []RelationType `json:"types,omitempty"`
	MinStrength *float64       `json:"min_strength,omitempty"`
	MaxStrength *float64       `json:"max_strength,omitempty"`
	OlderThan   *time.Time     `json:"older_than,omitempty"`
	All         bool           `json:"all,omitempty"`
}

// HasCriteria reports whether any narrowing criterion is set.
func (f BulkFilter) HasCriteria() bool {
	return f.GroupID != "" || len(f.Types) > 0 || f.MinStrength != nil || f.MaxStrength != nil || f.OlderThan != nil
}

func (f BulkFilter) Matches(r Relationship) bool {
	if f.GroupID != "" && r.GroupID != f.GroupID {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if r.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinStrength != nil && r.Strength < *f.MinStrength {
		return false
	}
	if f.MaxStrength != nil && r.Strength > *f.MaxStrength {
		return false
	}
	if f.OlderThan != nil && !r.CreatedAt.Before(*f.OlderThan) {
		return false
	}
	return true
}

type BulkResult struct {
	Requested int      `json:"requested"`
	Confirmed int      `json:"confirmed"`
	Errors    []string `json:"errors"`
}

package model

import "time"

type RelationType string

const (
	RelationManual           RelationType = "manual"
	RelationInferredTag      RelationType = "inferredTag"
	RelationInferredContent  RelationType = "inferredContent"
	RelationInferredTemporal RelationType = "inferredTemporal"
	RelationInferredWorkflow RelationType = "inferredWorkflow"
	RelationInferredSemantic RelationType = "inferredSemantic"
	RelationUnified          RelationType = "unified"
)

// Relationship is stored directed (source -> target) but is logically undirected:
// duplicates are detected on the unordered pair.
type Relationship struct {
	ID         string       `json:"id"`
	GroupID    string       `json:"group_id"`
	SourceID   string       `json:"source_id"`
	TargetID   string       `json:"target_id"`
	Type       RelationType `json:"type"`
	Strength   float64      `json:"strength"`
	Confidence float64      `json:"confidence"`
	Metadata   Metadata     `json:"metadata,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (r Relationship) PairKey() PairKey {
	return NewPairKey(r.SourceID, r.TargetID)
}

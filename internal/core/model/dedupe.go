package model

// DedupStrategy decides which relationship survives when several share a pair key.
type DedupStrategy struct {
	Priority         []RelationType `json:"priority"`
	QualityThreshold float64        `json:"quality_threshold"`
	PreserveManual   bool           `json:"preserve_manual"`
}

type QualityMetrics struct {
	RelationshipsAnalyzed int     `json:"relationships_analyzed"`
	DuplicateGroupsFound  int     `json:"duplicate_groups_found"`
	RelationshipsDeleted  int     `json:"relationships_deleted"`
	RelationshipsKept     int     `json:"relationships_kept"`
	AvgStrengthBefore     float64 `json:"avg_strength_before"`
	AvgStrengthAfter      float64 `json:"avg_strength_after"`
	QualityImprovement    float64 `json:"quality_improvement"`
}

type DuplicateGroup struct {
	Key     PairKey        `json:"-"`
	Pair    string         `json:"pair"`
	Kept    Relationship   `json:"kept"`
	Deleted []Relationship `json:"deleted"`
}

type DedupResult struct {
	Kept    []Relationship   `json:"kept"`
	Deleted []Relationship   `json:"deleted"`
	Groups  []DuplicateGroup `json:"groups"`
	Metrics QualityMetrics   `json:"metrics"`
}

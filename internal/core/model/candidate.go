package model

// Signals are the raw sub-scores a strategy measured for a pair.
type Signals struct {
	Similarity        float64 `json:"similarity"`
	ContentSimilarity float64 `json:"content_similarity"`
	TemporalBonus     float64 `json:"temporal_bonus"`
	SharedTags        int     `json:"shared_tags"`
	WorkflowBonus     float64 `json:"workflow_bonus,omitempty"`
}

// Candidate is a proposed relationship that has not been persisted yet.
type Candidate struct {
	SourceID    string       `json:"source_id"`
	TargetID    string       `json:"target_id"`
	Type        RelationType `json:"type"`
	Signals     Signals      `json:"signals"`
	Metadata    Metadata     `json:"metadata"`
	Explanation string       `json:"explanation"`

	// Filled in by the scorer.
	Quality    float64 `json:"quality"`
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
}

func (c Candidate) PairKey() PairKey {
	return NewPairKey(c.SourceID, c.TargetID)
}

type Score struct {
	Quality    float64 `json:"quality"`
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
}

type Selection struct {
	Candidates  []Candidate `json:"candidates"`
	TargetCount int         `json:"target_count"`
	Considered  int         `json:"considered"`
	Eligible    int         `json:"eligible"`
	Notice      ErrorKind   `json:"notice,omitempty"`
}

package model

import (
	"encoding/json"
	"fmt"
)

// Metadata explains why a relationship exists. Each relationship type has its own
// variant; the relationship's Type field is the discriminator.
type Metadata interface {
	Kind() RelationType
	Explain() string
}

type TagMetadata struct {
	SharedTags  []string `json:"shared_tags"`
	Common      int      `json:"common"`
	Union       int      `json:"union"`
	Jaccard     float64  `json:"jaccard"`
	Coverage    float64  `json:"coverage"`
	Similarity  float64  `json:"similarity"`
	Explanation string   `json:"explanation"`
}

func (m TagMetadata) Kind() RelationType { return RelationInferredTag }
func (m TagMetadata) Explain() string    { return m.Explanation }

type ContentMetadata struct {
	SharedWords int     `json:"shared_words"`
	UnionWords  int     `json:"union_words"`
	Similarity  float64 `json:"similarity"`
	Explanation string  `json:"explanation"`
}

func (m ContentMetadata) Kind() RelationType { return RelationInferredContent }
func (m ContentMetadata) Explain() string    { return m.Explanation }

type TemporalMetadata struct {
	GapSeconds  float64 `json:"gap_seconds"`
	SpanSeconds float64 `json:"span_seconds"`
	Bonus       float64 `json:"bonus"`
	Explanation string  `json:"explanation"`
}

func (m TemporalMetadata) Kind() RelationType { return RelationInferredTemporal }
func (m TemporalMetadata) Explain() string    { return m.Explanation }

type WorkflowMetadata struct {
	FromType       string  `json:"from_type"`
	ToType         string  `json:"to_type"`
	TextSimilarity float64 `json:"text_similarity"`
	WorkflowBonus  float64 `json:"workflow_bonus"`
	Score          float64 `json:"score"`
	Explanation    string  `json:"explanation"`
}

func (m WorkflowMetadata) Kind() RelationType { return RelationInferredWorkflow }
func (m WorkflowMetadata) Explain() string    { return m.Explanation }

type SemanticMetadata struct {
	Cosine      float64 `json:"cosine"`
	Explanation string  `json:"explanation"`
}

func (m SemanticMetadata) Kind() RelationType { return RelationInferredSemantic }
func (m SemanticMetadata) Explain() string    { return m.Explanation }

type ManualMetadata struct {
	Note        string `json:"note,omitempty"`
	Author      string `json:"author,omitempty"`
	Explanation string `json:"explanation"`
}

func (m ManualMetadata) Kind() RelationType { return RelationManual }
func (m ManualMetadata) Explain() string    { return m.Explanation }

type UnifiedMetadata struct {
	Sources     []RelationType `json:"sources"`
	Explanation string         `json:"explanation"`
}

func (m UnifiedMetadata) Kind() RelationType { return RelationUnified }
func (m UnifiedMetadata) Explain() string    { return m.Explanation }

// GenericMetadata holds metadata of relationship types this service does not produce
// itself (for example legacy "ai" or "derived" edges).
type GenericMetadata struct {
	Type   RelationType
	Fields map[string]any
}

func (m GenericMetadata) Kind() RelationType { return m.Type }

// MarshalJSON writes the fields flat, the same shape they are stored in.
func (m GenericMetadata) MarshalJSON() ([]byte, error) {
	if m.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.Fields)
}

func (m GenericMetadata) Explain() string {
	if s, ok := m.Fields["explanation"].(string); ok {
		return s
	}
	return ""
}

// EncodeMetadata renders metadata as the JSON string stored on an edge.
func EncodeMetadata(m Metadata) (string, error) {
	if m == nil {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s metadata: %w", m.Kind(), err)
	}
	return string(b), nil
}

// DecodeMetadata parses raw JSON into the variant that matches t.
func DecodeMetadata(t RelationType, raw []byte) (Metadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var (
		m   Metadata
		err error
	)
	switch t {
	case RelationInferredTag:
		var v TagMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	case RelationInferredContent:
		var v ContentMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	case RelationInferredTemporal:
		var v TemporalMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	case RelationInferredWorkflow:
		var v WorkflowMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	case RelationInferredSemantic:
		var v SemanticMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	case RelationManual:
		var v ManualMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	case RelationUnified:
		var v UnifiedMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	default:
		fields := map[string]any{}
		err = json.Unmarshal(raw, &fields)
		m = GenericMetadata{Type: t, Fields: fields}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata: %w", t, err)
	}
	return m, nil
}

// UnmarshalJSON resolves the metadata variant from the relationship type.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	type alias Relationship
	aux := struct {
		*alias
		Metadata json.RawMessage `json:"metadata,omitempty"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	m, err := DecodeMetadata(r.Type, aux.Metadata)
	if err != nil {
		return err
	}
	r.Metadata = m
	return nil
}

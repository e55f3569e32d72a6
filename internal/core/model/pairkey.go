package model

// PairKey identifies an unordered pair of item ids. NewPairKey(a, b) == NewPairKey(b, a).
type PairKey struct {
	Low  string
	High string
}

func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

func (k PairKey) String() string {
	return k.Low + "::" + k.High
}

type PairKeySet map[PairKey]struct{}

func NewPairKeySet(keys ...PairKey) PairKeySet {
	s := make(PairKeySet, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// PairKeysOf collects the pair keys already occupied by rels.
func PairKeysOf(rels []Relationship) PairKeySet {
	s := make(PairKeySet, len(rels))
	for _, r := range rels {
		s.Add(r.PairKey())
	}
	return s
}

func (s PairKeySet) Add(k PairKey) {
	s[k] = struct{}{}
}

func (s PairKeySet) Has(k PairKey) bool {
	_, ok := s[k]
	return ok
}

func (s PairKeySet) Len() int {
	return len(s)
}

func (s PairKeySet) Clone() PairKeySet {
	c := make(PairKeySet, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

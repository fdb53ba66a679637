package models

import "encoding/json"

// PendingPicks holds pick candidates made before the user has signed in.
// It is a value: Add and Merge return a new PendingPicks and leave the receiver unchanged.
type PendingPicks struct {
	candidates []PickCandidate
}

// NewPendingPicks builds a staging list; a later candidate for the same game wins
func NewPendingPicks(candidates ...PickCandidate) PendingPicks {
	var p PendingPicks
	for _, c := range candidates {
		p = p.Add(c)
	}
	return p
}

// Add returns a copy with c appended, replacing any earlier candidate for the same game
func (p PendingPicks) Add(c PickCandidate) PendingPicks {
	next := make([]PickCandidate, 0, len(p.candidates)+1)
	for _, existing := range p.candidates {
		if existing.GameID != c.GameID {
			next = append(next, existing)
		}
	}
	next = append(next, c)
	return PendingPicks{candidates: next}
}

// Merge returns a copy with every candidate of other added in order
func (p PendingPicks) Merge(other PendingPicks) PendingPicks {
	merged := p
	for _, c := range other.candidates {
		merged = merged.Add(c)
	}
	return merged
}

// Candidates returns a copy of the staged candidates in submission order
func (p PendingPicks) Candidates() []PickCandidate {
	out := make([]PickCandidate, len(p.candidates))
	copy(out, p.candidates)
	return out
}

// Len returns the number of staged candidates
func (p PendingPicks) Len() int {
	return len(p.candidates)
}

// IsEmpty reports whether nothing is staged
func (p PendingPicks) IsEmpty() bool {
	return len(p.candidates) == 0
}

func (p PendingPicks) MarshalJSON() ([]byte, error) {
	if p.candidates == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.candidates)
}

func (p *PendingPicks) UnmarshalJSON(data []byte) error {
	var candidates []PickCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return err
	}
	*p = NewPendingPicks(candidates...)
	return nil
}

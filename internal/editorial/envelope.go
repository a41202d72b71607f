package editorial

import (
	"encoding/json"
	"fmt"
)

// CachedEditorial is the envelope persisted in the cache: the editorial
// itself plus enough provenance to answer "where did this come from"
// without re-running discovery.
type CachedEditorial struct {
	Problem        ProblemIdentifier `json:"problem"`
	Editorial      Editorial         `json:"editorial"`
	TutorialURL    string            `json:"tutorial_url"`
	TutorialFormat TutorialFormat    `json:"tutorial_format"`
}

// Encode serializes the envelope for storage. Decode(Encode(x)) returns
// a value equal to x in every field the cache cares about.
func (c *CachedEditorial) Encode() ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode cached editorial: %w", err)
	}
	return raw, nil
}

// DecodeCachedEditorial parses a stored envelope. A payload that does not
// decode, or decodes to something without an editorial, is treated as
// corrupt and rejected; the cache layer turns that into a miss.
func DecodeCachedEditorial(raw []byte) (*CachedEditorial, error) {
	var c CachedEditorial
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cached editorial: %w", err)
	}
	if len(c.Editorial.Sections) == 0 {
		return nil, fmt.Errorf("decode cached editorial: envelope has no sections")
	}
	if !c.TutorialFormat.Valid() {
		return nil, fmt.Errorf("decode cached editorial: unknown tutorial format %q", c.TutorialFormat)
	}
	return &c, nil
}

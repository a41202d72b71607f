package editorial

import (
	"fmt"
	"strings"
)

// ProblemIdentifier pins down one Codeforces problem by contest and index.
// It is a value type: build it once, never mutate it.
type ProblemIdentifier struct {
	ContestID int    `json:"contest_id"`
	Index     string `json:"index"`
}

// String renders the identifier the way Codeforces displays it, e.g. "1234A".
func (p ProblemIdentifier) String() string {
	return fmt.Sprintf("%d%s", p.ContestID, p.Index)
}

// CacheKey derives the cache address for this problem.
// Equal coordinates always produce equal keys; this is the only
// addressing scheme the cache layer knows about.
func (p ProblemIdentifier) CacheKey() string {
	return fmt.Sprintf("editorial:%d:%s", p.ContestID, strings.ToUpper(p.Index))
}

// ProblemData is page metadata fetched fresh on every request.
// It is deliberately never cached: titles and tags get edited after
// contests, and re-fetching them is cheap next to the extraction pipeline.
type ProblemData struct {
	Title       string   `json:"title"`
	TimeLimit   string   `json:"time_limit,omitempty"`
	MemoryLimit string   `json:"memory_limit,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Rating      int      `json:"rating,omitempty"`
}

// TutorialFormat records how the tutorial body was structured when we
// pulled it. It travels with cached editorials so consumers know the
// provenance without re-fetching the source page.
type TutorialFormat string

const (
	FormatHTML     TutorialFormat = "html"
	FormatMarkdown TutorialFormat = "markdown"
	FormatText     TutorialFormat = "text"
)

// Valid reports whether f is one of the known formats.
func (f TutorialFormat) Valid() bool {
	switch f {
	case FormatHTML, FormatMarkdown, FormatText:
		return true
	}
	return false
}

// TutorialContent is the fetched tutorial body plus its classification.
type TutorialContent struct {
	Body      string         `json:"body"`
	Format    TutorialFormat `json:"format"`
	SourceURL string         `json:"source_url"`
}

// Section is one titled chunk of an editorial.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Editorial is the structured explanation extracted from a tutorial.
// The orchestration layer treats it as opaque; only the extractor and
// the cache codec look inside.
type Editorial struct {
	Sections []Section `json:"sections"`
}

// Validate rejects editorials with nothing in them. An extraction that
// produces zero sections is a failed extraction, not an empty success.
func (e *Editorial) Validate() error {
	if e == nil || len(e.Sections) == 0 {
		return E(KindExtraction, "editorial has no sections")
	}
	for i, s := range e.Sections {
		if strings.TrimSpace(s.Content) == "" {
			return E(KindExtraction, fmt.Sprintf("section %d has empty content", i))
		}
	}
	return nil
}

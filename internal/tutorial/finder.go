// Package tutorial locates and fetches the tutorial (editorial) post
// attached to a Codeforces problem.
package tutorial

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"editorial-gateway/internal/codeforces"
	"editorial-gateway/internal/editorial"
	"editorial-gateway/internal/fetch"
	"editorial-gateway/internal/llm"
)

// candidate is one contest-materials link that might be the tutorial.
type candidate struct {
	URL   string
	Label string
}

// Finder scrapes the contest materials box on the problem page for
// tutorial links. When a contest publishes more than one plausible
// link (translations, multiple divisions), one AI completion picks.
type Finder struct {
	fetcher *fetch.Client
	ai      llm.Client
	baseURL string
	logger  *zap.Logger
}

func NewFinder(fetcher *fetch.Client, ai llm.Client, baseURL string, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{
		fetcher: fetcher,
		ai:      ai,
		baseURL: baseURL,
		logger:  logger.Named("tutorialfinder"),
	}
}

// FindTutorial returns the URL of the tutorial post for id.
// No candidates on the page is a tutorial-not-found error.
func (f *Finder) FindTutorial(ctx context.Context, id editorial.ProblemIdentifier) (string, error) {
	pageURL := codeforces.ProblemPageURL(f.baseURL, id)

	doc, err := f.fetcher.Document(ctx, pageURL)
	if err != nil {
		return "", editorial.Wrap(editorial.KindUpstream,
			fmt.Sprintf("fetch problem page for %s", id), err)
	}

	candidates := f.collectCandidates(doc, pageURL)

	switch len(candidates) {
	case 0:
		return "", editorial.E(editorial.KindTutorialNotFound,
			fmt.Sprintf("no tutorial link on problem page for %s", id))
	case 1:
		f.logger.Debug("single tutorial candidate",
			zap.String("problem", id.String()),
			zap.String("url", candidates[0].URL),
		)
		return candidates[0].URL, nil
	}

	return f.pickCandidate(ctx, id, candidates), nil
}

// collectCandidates pulls blog links out of the contest materials box.
// Codeforces labels them "Tutorial", "Editorial" or the Russian
// "Разбор"; everything else in the sidebar (announcements, video
// streams) is ignored.
func (f *Finder) collectCandidates(doc *goquery.Document, pageURL string) []candidate {
	base, _ := url.Parse(pageURL)

	seen := make(map[string]bool)
	var out []candidate

	doc.Find(`a[href*="/blog/entry/"]`).Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Text())
		if title, ok := s.Attr("title"); ok && label == "" {
			label = strings.TrimSpace(title)
		}
		if !looksLikeTutorialLabel(label) {
			return
		}

		href, ok := s.Attr("href")
		if !ok {
			return
		}
		abs := resolveURL(base, href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		out = append(out, candidate{URL: abs, Label: label})
	})

	return out
}

var tutorialLabelPattern = regexp.MustCompile(`(?i)tutorial|editorial|разбор`)

func looksLikeTutorialLabel(label string) bool {
	return tutorialLabelPattern.MatchString(label)
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// pickCandidate asks the model to choose among several tutorial links.
// The answer must name one of the listed candidates; anything else
// falls back to the first link rather than failing the whole pipeline.
func (f *Finder) pickCandidate(ctx context.Context, id editorial.ProblemIdentifier, candidates []candidate) string {
	var list strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&list, "%d. %s (%s)\n", i+1, c.URL, c.Label)
	}

	req := &llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{
				Role: llm.RoleSystem,
				Content: "You select the correct editorial link for a Codeforces problem. " +
					"Prefer English tutorials over translations and division-matching posts. " +
					"Answer with only the number of the best candidate.",
			},
			{
				Role: llm.RoleUser,
				Content: fmt.Sprintf("Problem %s. Candidate tutorial links:\n%s\nWhich number is the tutorial for this problem?",
					id, list.String()),
			},
		},
		Temperature: 0,
		MaxTokens:   10,
	}

	resp, err := f.ai.ChatCompletion(ctx, req)
	if err != nil {
		f.logger.Warn("tutorial pick failed, using first candidate",
			zap.String("problem", id.String()),
			zap.Error(err),
		)
		return candidates[0].URL
	}

	if n, ok := parseChoice(resp.Text(), len(candidates)); ok {
		f.logger.Debug("model picked tutorial candidate",
			zap.String("problem", id.String()),
			zap.Int("choice", n),
			zap.String("url", candidates[n-1].URL),
		)
		return candidates[n-1].URL
	}

	f.logger.Warn("unusable tutorial pick, using first candidate",
		zap.String("problem", id.String()),
		zap.String("answer", resp.Text()),
	)
	return candidates[0].URL
}

var choicePattern = regexp.MustCompile(`[0-9]+`)

// parseChoice extracts a 1-based candidate number from a model answer.
func parseChoice(answer string, max int) (int, bool) {
	m := choicePattern.FindString(answer)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

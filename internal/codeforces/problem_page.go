package codeforces

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"editorial-gateway/internal/editorial"
	"editorial-gateway/internal/fetch"
)

// PageParser fetches a problem page and scrapes its metadata.
// Title is the one field the rest of the pipeline depends on; limits,
// tags and rating are scraped best-effort and may be empty.
type PageParser struct {
	fetcher *fetch.Client
	baseURL string
	logger  *zap.Logger
}

func NewPageParser(fetcher *fetch.Client, baseURL string, logger *zap.Logger) *PageParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageParser{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  logger.Named("problempage"),
	}
}

// ProblemData retrieves and parses the page for id.
func (p *PageParser) ProblemData(ctx context.Context, id editorial.ProblemIdentifier) (*editorial.ProblemData, error) {
	pageURL := ProblemPageURL(p.baseURL, id)

	doc, err := p.fetcher.Document(ctx, pageURL)
	if err != nil {
		return nil, editorial.Wrap(editorial.KindUpstream,
			fmt.Sprintf("fetch problem page for %s", id), err)
	}

	statement := doc.Find("div.problem-statement").First()

	title := cleanTitle(statement.Find("div.title").First().Text(), id.Index)
	if title == "" {
		return nil, editorial.E(editorial.KindUpstream,
			fmt.Sprintf("problem page for %s has no title", id))
	}

	data := &editorial.ProblemData{
		Title:       title,
		TimeLimit:   propertyValue(statement.Find("div.time-limit").First()),
		MemoryLimit: propertyValue(statement.Find("div.memory-limit").First()),
	}

	doc.Find("span.tag-box").Each(func(_ int, s *goquery.Selection) {
		tag := strings.TrimSpace(s.Text())
		if tag == "" {
			return
		}
		// The difficulty pseudo-tag is rendered as "*1500".
		if strings.HasPrefix(tag, "*") {
			if rating, err := strconv.Atoi(tag[1:]); err == nil {
				data.Rating = rating
			}
			return
		}
		data.Tags = append(data.Tags, tag)
	})

	p.logger.Debug("parsed problem page",
		zap.String("problem", id.String()),
		zap.String("title", data.Title),
		zap.Int("rating", data.Rating),
		zap.Int("tag_count", len(data.Tags)),
	)

	return data, nil
}

// cleanTitle strips the "A. " index prefix Codeforces puts on titles.
func cleanTitle(raw, index string) string {
	title := strings.TrimSpace(raw)
	prefix := strings.ToUpper(index) + "."
	if strings.HasPrefix(strings.ToUpper(title), prefix) {
		title = strings.TrimSpace(title[len(prefix):])
	}
	return title
}

// propertyValue reads a header property like time-limit, whose markup
// nests the label in a child div:
//
//	<div class="time-limit"><div class="property-title">time limit per test</div>1 second</div>
func propertyValue(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	label := s.Find("div.property-title").Text()
	return strings.TrimSpace(strings.TrimPrefix(s.Text(), label))
}

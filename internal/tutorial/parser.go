package tutorial

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"editorial-gateway/internal/editorial"
	"editorial-gateway/internal/fetch"
)

// Parser fetches a tutorial post and reduces it to readable content.
// HTML pages go through readability so navigation, comments and vote
// widgets do not end up in the extraction prompt.
type Parser struct {
	fetcher *fetch.Client
	logger  *zap.Logger
}

func NewParser(fetcher *fetch.Client, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		fetcher: fetcher,
		logger:  logger.Named("tutorialparser"),
	}
}

// TutorialContent retrieves rawURL and returns its body with a format
// classification.
func (p *Parser) TutorialContent(ctx context.Context, rawURL string) (*editorial.TutorialContent, error) {
	body, err := p.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, editorial.Wrap(editorial.KindUpstream,
			fmt.Sprintf("fetch tutorial %s", rawURL), err)
	}

	format := classifyFormat(body)

	text := string(body)
	if format == editorial.FormatHTML {
		text = p.extractReadable(body, rawURL)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, editorial.E(editorial.KindUpstream,
			fmt.Sprintf("tutorial %s has no readable content", rawURL))
	}

	p.logger.Debug("parsed tutorial",
		zap.String("url", rawURL),
		zap.String("format", string(format)),
		zap.Int("body_chars", len(text)),
	)

	return &editorial.TutorialContent{
		Body:      text,
		Format:    format,
		SourceURL: rawURL,
	}, nil
}

// extractReadable runs readability over an HTML page. When readability
// cannot find an article it falls back to the page's flattened text so
// the pipeline still has something to extract from.
func (p *Parser) extractReadable(body []byte, rawURL string) string {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		pageURL = nil
	}

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent
	}
	if err != nil {
		p.logger.Warn("readability failed, falling back to raw text",
			zap.String("url", rawURL),
			zap.Error(err),
		)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	doc.Find("script,style,noscript").Remove()
	return doc.Text()
}

// classifyFormat guesses how a tutorial body is structured. Blog posts
// arrive as full HTML pages; some older contests link plain text or
// markdown attachments.
func classifyFormat(body []byte) editorial.TutorialFormat {
	s := strings.TrimSpace(string(body))
	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") ||
		strings.Contains(lower, "<body") || strings.Contains(lower, "<div") {
		return editorial.FormatHTML
	}
	if looksLikeMarkdown(s) {
		return editorial.FormatMarkdown
	}
	return editorial.FormatText
}

func looksLikeMarkdown(s string) bool {
	if strings.Contains(s, "```") {
		return true
	}
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") || strings.HasPrefix(trimmed, "## ") {
			return true
		}
	}
	return false
}

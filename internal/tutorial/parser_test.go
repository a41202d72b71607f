package tutorial

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"editorial-gateway/internal/editorial"
	"editorial-gateway/internal/fetch"
)

func serveTutorial(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTutorialContentHTML(t *testing.T) {
	t.Parallel()

	srv := serveTutorial(t, `<html><head><title>Round 900 Editorial</title>
<script>var tracker = "noise";</script></head><body>
<div class="content">
  <h1>Codeforces Round 900 Editorial</h1>
  <p>Problem A. Sort the array and count adjacent pairs. The answer is the number of pairs with equal values.</p>
  <p>Problem B. Use a two pointer sweep over the sorted prefix sums to find the smallest window.</p>
</div>
</body></html>`)

	p := NewParser(fetch.New(fetch.Config{}), zaptest.NewLogger(t))

	got, err := p.TutorialContent(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("TutorialContent: %v", err)
	}

	if got.Format != editorial.FormatHTML {
		t.Fatalf("expected html format, got %s", got.Format)
	}
	if got.SourceURL != srv.URL {
		t.Fatalf("unexpected source URL: %s", got.SourceURL)
	}
	if !strings.Contains(got.Body, "two pointer sweep") {
		t.Fatalf("body lost article text: %q", got.Body)
	}
	if strings.Contains(got.Body, "tracker") {
		t.Fatalf("body kept script content: %q", got.Body)
	}
}

func TestTutorialContentMarkdown(t *testing.T) {
	t.Parallel()

	md := "# Editorial\n\nProblem A.\n\n```cpp\nint main() {}\n```\n"
	srv := serveTutorial(t, md)

	p := NewParser(fetch.New(fetch.Config{}), zaptest.NewLogger(t))

	got, err := p.TutorialContent(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("TutorialContent: %v", err)
	}
	if got.Format != editorial.FormatMarkdown {
		t.Fatalf("expected markdown format, got %s", got.Format)
	}
	if !strings.Contains(got.Body, "int main()") {
		t.Fatalf("markdown body should pass through untouched: %q", got.Body)
	}
}

func TestTutorialContentPlainText(t *testing.T) {
	t.Parallel()

	srv := serveTutorial(t, "Problem A: greedy from the left.\nProblem B: binary search the answer.\n")

	p := NewParser(fetch.New(fetch.Config{}), zaptest.NewLogger(t))

	got, err := p.TutorialContent(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("TutorialContent: %v", err)
	}
	if got.Format != editorial.FormatText {
		t.Fatalf("expected text format, got %s", got.Format)
	}
}

func TestTutorialContentFetchFailure(t *testing.T) {
	t.Parallel()

	srv := serveTutorial(t, "")
	srv.Close()

	p := NewParser(fetch.New(fetch.Config{}), zaptest.NewLogger(t))

	_, err := p.TutorialContent(context.Background(), srv.URL)
	if !editorial.IsKind(err, editorial.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestTutorialContentEmptyPage(t *testing.T) {
	t.Parallel()

	srv := serveTutorial(t, "<html><body>   </body></html>")

	p := NewParser(fetch.New(fetch.Config{}), zaptest.NewLogger(t))

	_, err := p.TutorialContent(context.Background(), srv.URL)
	if !editorial.IsKind(err, editorial.KindUpstream) {
		t.Fatalf("expected upstream error for empty page, got %v", err)
	}
}

func TestClassifyFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want editorial.TutorialFormat
	}{
		{"doctype", "<!DOCTYPE html><html></html>", editorial.FormatHTML},
		{"bare div", `<div class="post">hi</div>`, editorial.FormatHTML},
		{"fenced code", "text\n```\ncode\n```", editorial.FormatMarkdown},
		{"heading", "# Title\nbody", editorial.FormatMarkdown},
		{"plain", "just words here", editorial.FormatText},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := classifyFormat([]byte(tt.body)); got != tt.want {
				t.Fatalf("classifyFormat(%q) = %s, want %s", tt.body, got, tt.want)
			}
		})
	}
}

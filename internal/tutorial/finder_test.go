package tutorial

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"editorial-gateway/internal/editorial"
	"editorial-gateway/internal/fetch"
	"editorial-gateway/internal/llm"
)

type fakeAI struct {
	answer string
	err    error
	calls  int
}

func (f *fakeAI) ChatCompletion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{
		Choices: []llm.ChatChoice{
			{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: f.answer}},
		},
	}, nil
}

func serveProblemPage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const materialsFixture = `<html><body>
<div class="sidebar">
  <div class="roundbox sidebox">
    <div class="caption titled">Contest materials</div>
    <ul>
      <li><span><a href="/blog/entry/11">Announcement (en)</a></span></li>
      <li><span><a href="/blog/entry/22">Tutorial #1 (en)</a></span></li>
      <li><span><a href="/blog/entry/33">Tutorial #2 (ru)</a></span></li>
    </ul>
  </div>
</div>
</body></html>`

func TestFindTutorialNoCandidates(t *testing.T) {
	t.Parallel()

	srv := serveProblemPage(t, `<html><body>
		<div class="sidebar"><a href="/blog/entry/11">Announcement</a></div>
	</body></html>`)

	ai := &fakeAI{}
	f := NewFinder(fetch.New(fetch.Config{}), ai, srv.URL, zaptest.NewLogger(t))

	_, err := f.FindTutorial(context.Background(), editorial.ProblemIdentifier{ContestID: 1234, Index: "A"})
	if !editorial.IsKind(err, editorial.KindTutorialNotFound) {
		t.Fatalf("expected tutorial_not_found, got %v", err)
	}
	if ai.calls != 0 {
		t.Fatalf("AI should not be consulted when there are no candidates")
	}
}

func TestFindTutorialSingleCandidate(t *testing.T) {
	t.Parallel()

	srv := serveProblemPage(t, `<html><body>
		<a href="/blog/entry/99">Editorial</a>
	</body></html>`)

	ai := &fakeAI{}
	f := NewFinder(fetch.New(fetch.Config{}), ai, srv.URL, zaptest.NewLogger(t))

	got, err := f.FindTutorial(context.Background(), editorial.ProblemIdentifier{ContestID: 1234, Index: "A"})
	if err != nil {
		t.Fatalf("FindTutorial: %v", err)
	}
	if !strings.HasSuffix(got, "/blog/entry/99") {
		t.Fatalf("unexpected tutorial URL: %s", got)
	}
	if ai.calls != 0 {
		t.Fatalf("AI should not be consulted for a single candidate")
	}
}

func TestFindTutorialModelPicks(t *testing.T) {
	t.Parallel()

	srv := serveProblemPage(t, materialsFixture)

	ai := &fakeAI{answer: "2"}
	f := NewFinder(fetch.New(fetch.Config{}), ai, srv.URL, zaptest.NewLogger(t))

	got, err := f.FindTutorial(context.Background(), editorial.ProblemIdentifier{ContestID: 1234, Index: "A"})
	if err != nil {
		t.Fatalf("FindTutorial: %v", err)
	}
	if !strings.HasSuffix(got, "/blog/entry/33") {
		t.Fatalf("expected second candidate, got %s", got)
	}
	if ai.calls != 1 {
		t.Fatalf("expected exactly one AI call, got %d", ai.calls)
	}
}

func TestFindTutorialModelFailureFallsBack(t *testing.T) {
	t.Parallel()

	srv := serveProblemPage(t, materialsFixture)

	ai := &fakeAI{err: errors.New("provider down")}
	f := NewFinder(fetch.New(fetch.Config{}), ai, srv.URL, zaptest.NewLogger(t))

	got, err := f.FindTutorial(context.Background(), editorial.ProblemIdentifier{ContestID: 1234, Index: "A"})
	if err != nil {
		t.Fatalf("FindTutorial should not fail when the pick fails: %v", err)
	}
	if !strings.HasSuffix(got, "/blog/entry/22") {
		t.Fatalf("expected first candidate fallback, got %s", got)
	}
}

func TestFindTutorialBadAnswerFallsBack(t *testing.T) {
	t.Parallel()

	srv := serveProblemPage(t, materialsFixture)

	ai := &fakeAI{answer: "neither of these"}
	f := NewFinder(fetch.New(fetch.Config{}), ai, srv.URL, zaptest.NewLogger(t))

	got, err := f.FindTutorial(context.Background(), editorial.ProblemIdentifier{ContestID: 1234, Index: "A"})
	if err != nil {
		t.Fatalf("FindTutorial: %v", err)
	}
	if !strings.HasSuffix(got, "/blog/entry/22") {
		t.Fatalf("expected first candidate fallback, got %s", got)
	}
}

func TestParseChoice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answer string
		max    int
		want   int
		ok     bool
	}{
		{"2", 3, 2, true},
		{"Candidate 3.", 3, 3, true},
		{"0", 3, 0, false},
		{"7", 3, 0, false},
		{"none", 3, 0, false},
		{"", 3, 0, false},
	}

	for _, tt := range tests {
		got, ok := parseChoice(tt.answer, tt.max)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("parseChoice(%q, %d) = %d, %v; want %d, %v",
				tt.answer, tt.max, got, ok, tt.want, tt.ok)
		}
	}
}

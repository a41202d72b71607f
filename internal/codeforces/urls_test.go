package codeforces

import (
	"testing"

	"editorial-gateway/internal/editorial"
)

func TestResolveAcceptedShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want editorial.ProblemIdentifier
	}{
		{
			name: "problemset",
			url:  "https://codeforces.com/problemset/problem/1234/A",
			want: editorial.ProblemIdentifier{ContestID: 1234, Index: "A"},
		},
		{
			name: "contest",
			url:  "https://codeforces.com/contest/1234/problem/B",
			want: editorial.ProblemIdentifier{ContestID: 1234, Index: "B"},
		},
		{
			name: "gym",
			url:  "https://codeforces.com/gym/104128/problem/C",
			want: editorial.ProblemIdentifier{ContestID: 104128, Index: "C"},
		},
		{
			name: "lowercase index normalized",
			url:  "https://codeforces.com/problemset/problem/1234/a",
			want: editorial.ProblemIdentifier{ContestID: 1234, Index: "A"},
		},
		{
			name: "subdivided index",
			url:  "https://codeforces.com/contest/1900/problem/B1",
			want: editorial.ProblemIdentifier{ContestID: 1900, Index: "B1"},
		},
		{
			name: "scheme-less",
			url:  "codeforces.com/problemset/problem/1/A",
			want: editorial.ProblemIdentifier{ContestID: 1, Index: "A"},
		},
		{
			name: "trailing slash and query",
			url:  "https://codeforces.com/contest/1234/problem/A/?locale=en",
			want: editorial.ProblemIdentifier{ContestID: 1234, Index: "A"},
		},
		{
			name: "mirror host",
			url:  "https://mirror.codeforces.com/problemset/problem/1234/A",
			want: editorial.ProblemIdentifier{ContestID: 1234, Index: "A"},
		},
	}

	r := NewURLResolver()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Resolve(tt.url)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.url, err)
			}
			if got != tt.want {
				t.Fatalf("Resolve(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestResolveRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"wrong host", "https://example.com/problemset/problem/1234/A"},
		{"lookalike subdomain", "https://codeforces.evil.example/problemset/problem/1234/A"},
		{"embedded name", "https://notcodeforces.com/problemset/problem/1234/A"},
		{"contest listing", "https://codeforces.com/contest/1234"},
		{"blog post", "https://codeforces.com/blog/entry/12345"},
		{"non-numeric contest", "https://codeforces.com/problemset/problem/abc/A"},
		{"zero contest", "https://codeforces.com/problemset/problem/0/A"},
		{"bad index", "https://codeforces.com/problemset/problem/1234/AA7X"},
		{"numeric index", "https://codeforces.com/problemset/problem/1234/7"},
		{"missing index", "https://codeforces.com/problemset/problem/1234"},
	}

	r := NewURLResolver()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := r.Resolve(tt.url)
			if err == nil {
				t.Fatalf("Resolve(%q) succeeded, want invalid input error", tt.url)
			}
			if !editorial.IsKind(err, editorial.KindInvalidInput) {
				t.Fatalf("Resolve(%q) error kind = %v, want invalid_input", tt.url, err)
			}
		})
	}
}

func TestProblemPageURL(t *testing.T) {
	t.Parallel()

	regular := editorial.ProblemIdentifier{ContestID: 1234, Index: "A"}
	if got := ProblemPageURL("https://codeforces.com/", regular); got != "https://codeforces.com/problemset/problem/1234/A" {
		t.Fatalf("unexpected problemset URL: %s", got)
	}

	gym := editorial.ProblemIdentifier{ContestID: 104128, Index: "C"}
	if got := ProblemPageURL("", gym); got != "https://codeforces.com/gym/104128/problem/C" {
		t.Fatalf("unexpected gym URL: %s", got)
	}
}

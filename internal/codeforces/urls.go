// Package codeforces knows the URL shapes and page markup of
// codeforces.com. Nothing outside this package parses Codeforces HTML
// or builds Codeforces URLs.
package codeforces

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"editorial-gateway/internal/editorial"
)

// DefaultBaseURL is where problem pages live unless overridden.
const DefaultBaseURL = "https://codeforces.com"

// Contest IDs above this are gym contests, which live under /gym
// instead of /problemset.
const gymContestThreshold = 100000

var indexPattern = regexp.MustCompile(`^[A-Za-z][0-9]{0,2}$`)

// URLResolver turns public problem URLs into problem identifiers.
// It is pure: no network, no state.
type URLResolver struct{}

// NewURLResolver returns a resolver for codeforces.com problem URLs.
func NewURLResolver() URLResolver { return URLResolver{} }

// Resolve accepts the three public problem URL shapes:
//
//	https://codeforces.com/problemset/problem/<contest>/<index>
//	https://codeforces.com/contest/<contest>/problem/<index>
//	https://codeforces.com/gym/<contest>/problem/<index>
//
// Anything else is an invalid input error. The index is normalized to
// upper case so equivalent URLs resolve to the same identifier.
func (URLResolver) Resolve(rawURL string) (editorial.ProblemIdentifier, error) {
	var zero editorial.ProblemIdentifier

	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return zero, editorial.E(editorial.KindInvalidInput, "empty URL")
	}

	// Tolerate scheme-less input like "codeforces.com/...".
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return zero, editorial.Wrap(editorial.KindInvalidInput, "unparseable URL", err)
	}

	host := strings.ToLower(u.Hostname())
	if !isCodeforcesHost(host) {
		return zero, editorial.E(editorial.KindInvalidInput,
			fmt.Sprintf("host %q is not a Codeforces host", u.Hostname()))
	}

	segs := splitPath(u.Path)

	var contestRaw, indexRaw string
	switch {
	case len(segs) == 4 && segs[0] == "problemset" && segs[1] == "problem":
		contestRaw, indexRaw = segs[2], segs[3]
	case len(segs) == 4 && (segs[0] == "contest" || segs[0] == "gym") && segs[2] == "problem":
		contestRaw, indexRaw = segs[1], segs[3]
	default:
		return zero, editorial.E(editorial.KindInvalidInput,
			fmt.Sprintf("URL path %q is not a problem page", u.Path))
	}

	contestID, err := strconv.Atoi(contestRaw)
	if err != nil || contestID <= 0 {
		return zero, editorial.E(editorial.KindInvalidInput,
			fmt.Sprintf("invalid contest id %q", contestRaw))
	}

	if !indexPattern.MatchString(indexRaw) {
		return zero, editorial.E(editorial.KindInvalidInput,
			fmt.Sprintf("invalid problem index %q", indexRaw))
	}

	return editorial.ProblemIdentifier{
		ContestID: contestID,
		Index:     strings.ToUpper(indexRaw),
	}, nil
}

// ProblemPageURL builds the canonical page URL for an identifier.
// Gym problems are only reachable through /gym.
func ProblemPageURL(baseURL string, id editorial.ProblemIdentifier) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if id.ContestID > gymContestThreshold {
		return fmt.Sprintf("%s/gym/%d/problem/%s", base, id.ContestID, id.Index)
	}
	return fmt.Sprintf("%s/problemset/problem/%d/%s", base, id.ContestID, id.Index)
}

// isCodeforcesHost accepts codeforces.com and its subdomains (www,
// the official mirrors). A host that merely embeds the name does not
// count.
func isCodeforcesHost(host string) bool {
	return host == "codeforces.com" || strings.HasSuffix(host, ".codeforces.com")
}

func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

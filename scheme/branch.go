package scheme

import (
	"fmt"
	"strings"
)

const (
	exampleContentPath = "content/Game/Spells/Fireball?edit"
	noValidScheme      = "<no valid characters in scheme>"
)

type (
	// Replacement swaps Token for Replacement in the branch name; matching ignores case.
	Replacement struct {
		Token       string
		Replacement string
	}

	// BranchProvider derives the scheme from a source-control branch name, such as "++Shooter+Main".
	BranchProvider struct {
		Branch       string
		Replacements []Replacement
	}

	// Preview shows what a branch configuration resolves to.
	Preview struct {
		Branch     string
		Scheme     string
		ExampleURI string
	}
)

// NewBranchProvider uses replacements as given, or DefaultReplacements when there are none.
func NewBranchProvider(branch, project string, replacements []Replacement) *BranchProvider {
	if len(replacements) == 0 {
		replacements = DefaultReplacements(branch, project)
	}
	return &BranchProvider{Branch: branch, Replacements: replacements}
}

// DefaultReplacements turns a "++Depot+Stream" branch into "<project>-stream" by replacing
// everything up to the last '+' with the sanitized project name.
func DefaultReplacements(branch, project string) []Replacement {
	last := strings.LastIndexByte(branch, '+')
	if !strings.HasPrefix(branch, "++") || last <= 2 || last >= len(branch)-1 {
		return nil
	}

	prefix, ok := Sanitize(project)
	if !ok {
		prefix = "hue4"
	}
	return []Replacement{{Token: branch[:last+1], Replacement: prefix + "-"}}
}

func (bp *BranchProvider) PreferredScheme() (string, bool) {
	s := bp.Branch
	for _, r := range bp.Replacements {
		s = replaceFold(s, r.Token, r.Replacement)
	}
	return Sanitize(s)
}

func (bp *BranchProvider) Preview() Preview {
	p := Preview{Branch: bp.Branch, Scheme: noValidScheme, ExampleURI: "N/A"}
	if s, ok := bp.PreferredScheme(); ok {
		p.Scheme = s
		p.ExampleURI = fmt.Sprintf("%s://%s", s, exampleContentPath)
	}
	return p
}

// replaceFold replaces every case-insensitive occurrence of token in s.
func replaceFold(s, token, replacement string) string {
	if token == "" {
		return s
	}
	lowerS, lowerToken := strings.ToLower(s), strings.ToLower(token)
	if len(lowerS) != len(s) || len(lowerToken) != len(token) {
		// case mapping changed byte lengths, offsets would not line up
		return strings.ReplaceAll(s, token, replacement)
	}

	var b strings.Builder
	for {
		idx := strings.Index(lowerS, lowerToken)
		if idx < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:idx])
		b.WriteString(replacement)
		s, lowerS = s[idx+len(token):], lowerS[idx+len(token):]
	}
}

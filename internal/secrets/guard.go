package secrets

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
	"github.com/zricethezav/gitleaks/v8/report"
)

// ErrSecretDetected is returned by Guard.Check for text that matches a rule.
var ErrSecretDetected = errors.New("text looks like a secret")

// Finding is one rule match inside scanned text.
type Finding struct {
	RuleID      string
	Description string
}

// scanner is the subset of *detect.Detector the guard needs.
type scanner interface {
	DetectString(content string) []report.Finding
}

// Guard rejects text containing credentials.
type Guard struct {
	scanner scanner
	allow   []*regexp.Regexp
}

// NewGuard builds a guard on the Gitleaks default configuration.
// Matches of any allow pattern are ignored.
func NewGuard(allow []string) (*Guard, error) {
	if err := validatePatterns(allow); err != nil {
		return nil, err
	}

	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks rules: %w", err)
	}
	applyAllowlist(&detector.Config, allow)

	return newGuard(detector, allow), nil
}

func newGuard(s scanner, allow []string) *Guard {
	g := &Guard{scanner: s}
	for _, p := range allow {
		g.allow = append(g.allow, regexp.MustCompile(p))
	}
	return g
}

// Findings scans text and returns every non-allowlisted match.
func (g *Guard) Findings(text string) []Finding {
	var out []Finding
	for _, f := range g.scanner.DetectString(text) {
		if g.allowed(f.Secret) || g.allowed(f.Match) {
			continue
		}
		out = append(out, Finding{RuleID: f.RuleID, Description: f.Description})
	}
	return out
}

// Check returns an error wrapping ErrSecretDetected when text contains a
// credential. The error names the matched rules, never the secret.
func (g *Guard) Check(text string) error {
	findings := g.Findings(text)
	if len(findings) == 0 {
		return nil
	}
	rules := make([]string, 0, len(findings))
	for _, f := range findings {
		rules = append(rules, f.RuleID)
	}
	return fmt.Errorf("%w (rules: %s); remove it or allowlist it in %s",
		ErrSecretDetected, strings.Join(rules, ", "), ProjectAllowlistFile)
}

func (g *Guard) allowed(s string) bool {
	if s == "" {
		return false
	}
	for _, re := range g.allow {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// applyAllowlist merges content patterns into the Gitleaks config.
// Patterns were validated by the caller.
func applyAllowlist(cfg *gitleaksConfig.Config, patterns []string) {
	if len(patterns) == 0 {
		return
	}
	allowlist := &gitleaksConfig.Allowlist{
		Description: "crumbs allowlist",
	}
	for _, p := range patterns {
		allowlist.Regexes = append(allowlist.Regexes, (*gitleaksRegexp.Regexp)(regexp.MustCompile(p)))
	}
	allowlist.StopWords = append(allowlist.StopWords, patterns...)
	cfg.Allowlists = append(cfg.Allowlists, allowlist)
}

package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
)

// ProjectAllowlistFile is read from the store root when present.
const ProjectAllowlistFile = ".gitleaks.toml"

var (
	// ErrInvalidTOML indicates an allowlist file that does not parse.
	ErrInvalidTOML = errors.New("invalid allowlist TOML")

	// ErrInvalidRegex indicates an allowlist pattern that does not compile.
	ErrInvalidRegex = errors.New("invalid allowlist pattern")
)

// LoadProjectAllowlist returns the content patterns from
// <root>/.gitleaks.toml. A missing file yields no patterns.
//
// Path patterns are compiled too so a broken file fails early, but they
// are not returned: memory text has no file path to match against.
func LoadProjectAllowlist(root string) ([]string, error) {
	path := filepath.Join(root, ProjectAllowlistFile)

	var doc struct {
		Allowlist struct {
			Regexes []string
			Paths   []string
		}
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}
	if err := validatePatterns(doc.Allowlist.Regexes); err != nil {
		return nil, fmt.Errorf("%s: regexes: %w", path, err)
	}
	if err := validatePatterns(doc.Allowlist.Paths); err != nil {
		return nil, fmt.Errorf("%s: paths: %w", path, err)
	}
	return doc.Allowlist.Regexes, nil
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidRegex, p, err)
		}
	}
	return nil
}

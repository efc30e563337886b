// Package secrets keeps credentials out of the memory journal.
//
// The journal lives inside the repository and is meant to be committed, so
// memory text is scanned with the Gitleaks default rule set before it is
// written. Content patterns can be allowlisted in the project's
// .gitleaks.toml ([allowlist] regexes) or through configuration.
package secrets

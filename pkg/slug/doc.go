// Package slug turns arbitrary display names into deterministic
// lowercase identifiers. The tenant provisioner relies on Make with an
// underscore separator to derive schema names, so the output for a given
// input must never change between releases.
package slug

// Package version resolves the current and next semantic version for a release.
// This file defines the Increment type: the strategy for deriving the next version.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Kind classifies an increment strategy.
type Kind int

const (
	// KindNone means no increment was specified; the orchestrator decides
	// whether to prompt interactively or fail.
	KindNone Kind = iota
	// KindPatch bumps the patch segment.
	KindPatch
	// KindMinor bumps the minor segment.
	KindMinor
	// KindMajor bumps the major segment.
	KindMajor
	// KindPreRelease bumps or appends the prerelease identifier segment.
	KindPreRelease
	// KindExplicit uses a literal version string.
	KindExplicit
	// KindRecommendation defers the bump to a commit-history analyzer.
	KindRecommendation
)

// String returns the canonical spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return ""
	case KindPatch:
		return "patch"
	case KindMinor:
		return "minor"
	case KindMajor:
		return "major"
	case KindPreRelease:
		return "prerelease"
	case KindExplicit:
		return "explicit"
	case KindRecommendation:
		return "recommendation"
	}
	return ""
}

// Increment is a tagged value describing how to derive the next version:
// a fixed bump kind, an explicit literal, or a recommendation strategy.
// Representing the strategy as a tag keeps the deferred-changelog decision
// a switch on Kind rather than a substring check.
type Increment struct {
	Kind Kind
	// Literal holds the explicit version for KindExplicit.
	Literal string
	// Strategy names the analyzer for KindRecommendation (e.g. "conventional").
	Strategy string
}

// recommendationStrategies are the supported commit-history analyzers.
var recommendationStrategies = map[string]bool{ //nolint:gochecknoglobals // Closed set of strategy names
	"conventional": true,
}

// ParseIncrement interprets a CLI increment argument.
// Accepted forms: "" (none), patch, minor, major, prerelease (or pre),
// a recommendation strategy name, or an explicit semantic version literal.
func ParseIncrement(s string) (Increment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Increment{Kind: KindNone}, nil
	case "patch":
		return Increment{Kind: KindPatch}, nil
	case "minor":
		return Increment{Kind: KindMinor}, nil
	case "major":
		return Increment{Kind: KindMajor}, nil
	case "prerelease", "pre":
		return Increment{Kind: KindPreRelease}, nil
	}

	if recommendationStrategies[strings.ToLower(s)] {
		return Increment{Kind: KindRecommendation, Strategy: strings.ToLower(s)}, nil
	}

	// Anything else must parse as an explicit version literal.
	if _, err := semver.NewVersion(strings.TrimPrefix(s, "v")); err != nil {
		return Increment{}, fmt.Errorf("%w: %q", keelerrors.ErrInvalidIncrement, s)
	}
	return Increment{Kind: KindExplicit, Literal: strings.TrimPrefix(s, "v")}, nil
}

// IsRecommendation reports whether the bump must be deferred until the
// commit-history analyzer has run.
func (i Increment) IsRecommendation() bool {
	return i.Kind == KindRecommendation
}

// IsNone reports whether no increment was specified.
func (i Increment) IsNone() bool {
	return i.Kind == KindNone
}

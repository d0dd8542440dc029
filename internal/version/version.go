// Package version resolves the current and next semantic version for a release.
//
// The Resolver owns the VersionState for one pipeline run: the latest known
// version, the resolved next version, and the prerelease flags. Only the
// orchestrator mutates it.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// LatestOptions selects the source of the latest known version.
type LatestOptions struct {
	// Use is an explicit override and wins over every other source.
	Use string
	// GitTag is the latest version-control tag, if any.
	GitTag string
	// PkgVersion is the version field of the package manifest, if any.
	PkgVersion string
	// IsRootDir indicates the working directory is the project root;
	// only then does the git tag outrank the manifest version.
	IsRootDir bool
}

// BumpOptions configures the next-version computation.
type BumpOptions struct {
	Increment Increment
	// PreRelease requests a prerelease bump instead of a release bump.
	PreRelease bool
	// PreReleaseID is the identifier for the prerelease segment (e.g. "alpha").
	// Empty means a bare numeric prerelease (1.2.4-0, 1.2.4-1, ...).
	PreReleaseID string
}

// Candidate is one selectable next version for the interactive prompt.
type Candidate struct {
	Label   string
	Version string
}

// Resolver computes and validates the next version for a release.
type Resolver struct {
	latest *semver.Version
	next   *semver.Version
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// SetLatest chooses the latest known version by priority: explicit override,
// git tag when in the project root, manifest version, git tag regardless of
// root-ness, then the baseline. An unparseable explicit override is fatal;
// unparseable fallback sources are skipped.
func (r *Resolver) SetLatest(opts LatestOptions) error {
	if opts.Use != "" {
		v, err := parse(opts.Use)
		if err != nil {
			return fmt.Errorf("%w: latest version override %q", keelerrors.ErrInvalidVersion, opts.Use)
		}
		r.latest = v
		return nil
	}

	var candidates []string
	if opts.IsRootDir {
		candidates = []string{opts.GitTag, opts.PkgVersion}
	} else {
		candidates = []string{opts.PkgVersion, opts.GitTag}
	}
	candidates = append(candidates, constants.BaselineVersion)

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if v, err := parse(c); err == nil {
			r.latest = v
			return nil
		}
	}

	// Unreachable in practice: the baseline always parses.
	return keelerrors.Wrap(keelerrors.ErrInvalidVersion, "no latest version resolved")
}

// Latest returns the latest known version, or "" if unset.
func (r *Resolver) Latest() string {
	if r.latest == nil {
		return ""
	}
	return r.latest.String()
}

// Next returns the resolved next version, or "" until Bump succeeds.
func (r *Resolver) Next() string {
	if r.next == nil {
		return ""
	}
	return r.next.String()
}

// IsPreRelease reports whether the resolved next version carries a
// prerelease segment.
func (r *Resolver) IsPreRelease() bool {
	return r.next != nil && r.next.Prerelease() != ""
}

// PreReleaseID returns the leading identifier of the prerelease segment
// ("alpha" for 1.3.0-alpha.2), or "" for release versions. It doubles as
// the default npm dist-tag for prereleases.
func (r *Resolver) PreReleaseID() string {
	if r.next == nil || r.next.Prerelease() == "" {
		return ""
	}
	id := strings.SplitN(r.next.Prerelease(), ".", 2)[0]
	// A bare numeric prerelease (1.2.4-0) has no usable identifier.
	if _, err := strconv.Atoi(id); err == nil {
		return ""
	}
	return id
}

// Bump computes the next version from the latest per the increment.
// Recommendation increments must be resolved to a fixed kind by the
// analyzer before calling Bump; passing one here is a programming error.
func (r *Resolver) Bump(opts BumpOptions) error {
	if r.latest == nil {
		return keelerrors.Wrap(keelerrors.ErrInvalidVersion, "latest version not resolved")
	}
	if opts.Increment.IsRecommendation() {
		return keelerrors.Wrap(keelerrors.ErrInvalidIncrement, "recommendation increment not resolved")
	}

	if opts.Increment.Kind == KindExplicit {
		v, err := parse(opts.Increment.Literal)
		if err != nil {
			return fmt.Errorf("%w: %q", keelerrors.ErrInvalidVersion, opts.Increment.Literal)
		}
		r.next = v
		return nil
	}

	if opts.PreRelease || opts.Increment.Kind == KindPreRelease {
		next, err := r.bumpPreRelease(opts)
		if err != nil {
			return err
		}
		r.next = next
		return nil
	}

	var next semver.Version
	switch opts.Increment.Kind {
	case KindPatch:
		next = r.latest.IncPatch()
	case KindMinor:
		next = r.latest.IncMinor()
	case KindMajor:
		next = r.latest.IncMajor()
	default:
		return fmt.Errorf("%w: %q", keelerrors.ErrInvalidIncrement, opts.Increment.Kind)
	}
	r.next = &next
	return nil
}

// bumpPreRelease appends or increments the prerelease identifier segment.
// A fixed release increment first bumps the release segment, then starts the
// prerelease sequence at zero; without one, an existing prerelease continues
// counting and a release version gets a patch bump plus a fresh sequence.
func (r *Resolver) bumpPreRelease(opts BumpOptions) (*semver.Version, error) {
	id := opts.PreReleaseID

	var base semver.Version
	switch opts.Increment.Kind {
	case KindPatch:
		base = r.latest.IncPatch()
	case KindMinor:
		base = r.latest.IncMinor()
	case KindMajor:
		base = r.latest.IncMajor()
	case KindNone, KindPreRelease:
		if r.latest.Prerelease() != "" {
			if id == "" {
				id = firstIdentifier(r.latest.Prerelease())
			}
			return continuePreRelease(r.latest, id)
		}
		base = r.latest.IncPatch()
	default:
		return nil, fmt.Errorf("%w: %q with prerelease", keelerrors.ErrInvalidIncrement, opts.Increment.Kind)
	}

	v, err := base.SetPrerelease(startSequence(id))
	if err != nil {
		return nil, fmt.Errorf("%w: prerelease id %q", keelerrors.ErrInvalidVersion, id)
	}
	return &v, nil
}

// Validate fails unless a next version is set, parseable, and strictly
// greater than the latest version under semantic-version ordering.
func (r *Resolver) Validate() error {
	if r.next == nil {
		return keelerrors.Wrap(keelerrors.ErrInvalidVersion, "no version set")
	}
	if r.latest != nil && !r.next.GreaterThan(r.latest) {
		return fmt.Errorf("%w: %s does not increase %s",
			keelerrors.ErrInvalidVersion, r.next, r.latest)
	}
	return nil
}

// Candidates returns the selectable next versions for the interactive
// prompt: one entry per fixed bump kind computed from the latest version.
func (r *Resolver) Candidates() []Candidate {
	if r.latest == nil {
		return nil
	}
	patch := r.latest.IncPatch()
	minor := r.latest.IncMinor()
	major := r.latest.IncMajor()
	return []Candidate{
		{Label: fmt.Sprintf("patch (%s)", patch.String()), Version: patch.String()},
		{Label: fmt.Sprintf("minor (%s)", minor.String()), Version: minor.String()},
		{Label: fmt.Sprintf("major (%s)", major.String()), Version: major.String()},
	}
}

// parse parses a version string, tolerating a leading "v".
func parse(s string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(s), "v"))
}

// firstIdentifier returns the leading dot-separated identifier of a
// prerelease string, or "" when it is purely numeric.
func firstIdentifier(pre string) string {
	id := strings.SplitN(pre, ".", 2)[0]
	if _, err := strconv.Atoi(id); err == nil {
		return ""
	}
	return id
}

// startSequence renders the first prerelease value for an identifier:
// "alpha" -> "alpha.0", "" -> "0".
func startSequence(id string) string {
	if id == "" {
		return "0"
	}
	return id + ".0"
}

// continuePreRelease increments the numeric tail of an existing prerelease
// sequence, or restarts the sequence when the identifier changes.
func continuePreRelease(latest *semver.Version, id string) (*semver.Version, error) {
	pre := latest.Prerelease()
	parts := strings.Split(pre, ".")

	sameID := firstIdentifier(pre) == id
	if sameID {
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			parts[len(parts)-1] = strconv.Itoa(n + 1)
			v, setErr := latest.SetPrerelease(strings.Join(parts, "."))
			if setErr != nil {
				return nil, fmt.Errorf("%w: prerelease %q", keelerrors.ErrInvalidVersion, pre)
			}
			return &v, nil
		}
		// No numeric tail yet (1.2.3-alpha): start counting.
		v, err := latest.SetPrerelease(pre + ".1")
		if err != nil {
			return nil, fmt.Errorf("%w: prerelease %q", keelerrors.ErrInvalidVersion, pre)
		}
		return &v, nil
	}

	v, err := latest.SetPrerelease(startSequence(id))
	if err != nil {
		return nil, fmt.Errorf("%w: prerelease id %q", keelerrors.ErrInvalidVersion, id)
	}
	return &v, nil
}

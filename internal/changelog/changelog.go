// Package changelog derives release notes and a recommended version
// increment from the commit history since the previous release.
//
// Commits are parsed as conventional commits. The generated markdown is
// used as the release notes body and prepended to the changelog file;
// the recommendation resolves "conventional" increments to a fixed bump.
package changelog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/keel/internal/git"
	"github.com/mrz1836/keel/internal/version"
)

// Commit is one parsed conventional commit.
type Commit struct {
	Hash     string
	Type     string
	Scope    string
	Subject  string
	Breaking bool
}

// Changelog holds the analysis of the commit range for one release.
type Changelog struct {
	// Commits are the parsed commits, newest first.
	Commits []Commit
	// Recommended is the bump kind derived from the commit types.
	Recommended version.Kind
}

// Generator scans the git history of a working directory.
type Generator struct {
	runner git.CmdRunner
	dir    string
}

// NewGenerator creates a Generator over the given repository directory.
func NewGenerator(runner git.CmdRunner, dir string) *Generator {
	return &Generator{runner: runner, dir: dir}
}

// logFormat renders hash and subject tab-separated, one commit per line.
const logFormat = "--pretty=format:%H%x09%s"

// Generate analyzes the commits between fromTag and HEAD. An empty
// fromTag scans the full history. An empty range yields an empty
// Changelog with recommendation KindNone.
func (g *Generator) Generate(ctx context.Context, fromTag string) (*Changelog, error) {
	args := []string{"log", "--no-merges", logFormat}
	if fromTag != "" {
		args = append(args, fromTag+"..HEAD")
	}

	out, err := g.runner.Run(ctx, g.dir, args...)
	if err != nil {
		return nil, err
	}

	cl := &Changelog{Recommended: version.KindNone}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		hash, subject, _ := strings.Cut(line, "\t")
		cl.Commits = append(cl.Commits, parseCommit(hash, subject))
	}

	cl.Recommended = recommend(cl.Commits)
	return cl, nil
}

// parseCommit splits a subject of the form "type(scope)!: description".
// Subjects that do not follow the convention keep an empty type.
func parseCommit(hash, subject string) Commit {
	c := Commit{Hash: hash, Subject: subject}

	head, desc, ok := strings.Cut(subject, ": ")
	if !ok {
		return c
	}

	if strings.HasSuffix(head, "!") {
		c.Breaking = true
		head = strings.TrimSuffix(head, "!")
	}
	if open := strings.Index(head, "("); open >= 0 && strings.HasSuffix(head, ")") {
		c.Scope = head[open+1 : len(head)-1]
		head = head[:open]
	}
	if head == "" || strings.ContainsAny(head, " \t") {
		// Not a conventional type.
		c.Breaking = false
		c.Scope = ""
		return c
	}

	c.Type = strings.ToLower(head)
	c.Subject = desc
	return c
}

// recommend maps the commit set to a bump kind: any breaking change wins
// major, any feature wins minor, anything else patch. No commits means no
// recommendation.
func recommend(commits []Commit) version.Kind {
	if len(commits) == 0 {
		return version.KindNone
	}
	kind := version.KindPatch
	for _, c := range commits {
		if c.Breaking {
			return version.KindMajor
		}
		if c.Type == "feat" {
			kind = version.KindMinor
		}
	}
	return kind
}

// sectionOrder fixes the rendering order of commit groups.
var sectionOrder = []struct {
	title string
	match func(Commit) bool
}{
	{"Breaking Changes", func(c Commit) bool { return c.Breaking }},
	{"Features", func(c Commit) bool { return !c.Breaking && c.Type == "feat" }},
	{"Bug Fixes", func(c Commit) bool { return !c.Breaking && c.Type == "fix" }},
	{"Other Changes", func(c Commit) bool { return !c.Breaking && c.Type != "feat" && c.Type != "fix" }},
}

// Render produces the markdown release notes for the given version.
func (cl *Changelog) Render(ver string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", ver)

	if len(cl.Commits) == 0 {
		b.WriteString("\nNo notable changes.\n")
		return b.String()
	}

	for _, section := range sectionOrder {
		var lines []string
		for _, c := range cl.Commits {
			if !section.match(c) {
				continue
			}
			if c.Scope != "" {
				lines = append(lines, fmt.Sprintf("- **%s:** %s (%s)", c.Scope, c.Subject, shortHash(c.Hash)))
			} else {
				lines = append(lines, fmt.Sprintf("- %s (%s)", c.Subject, shortHash(c.Hash)))
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", section.title)
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// shortHash abbreviates a commit hash for display.
func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

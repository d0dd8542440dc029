package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// GitLab creates releases through the GitLab REST API. The target project
// is derived from the git remote url.
type GitLab struct {
	httpClient *http.Client
	logger     zerolog.Logger

	// baseURL is the API root, e.g. "https://gitlab.com/api/v4".
	baseURL string
	// project is the URL-encoded "group/project" path.
	project string
	// webURL is the project's browser url, used for the release link.
	webURL string

	lookupEnv func(string) (string, bool)

	notes      string
	released   bool
	releaseURL string
}

// NewGitLab creates a GitLab client for the project behind remoteURL.
func NewGitLab(remoteURL string, logger zerolog.Logger) (*GitLab, error) {
	host, path, err := splitRemote(remoteURL)
	if err != nil {
		return nil, err
	}
	return &GitLab{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		baseURL:    "https://" + host + "/api/v4",
		project:    url.PathEscape(path),
		webURL:     "https://" + host + "/" + path,
		lookupEnv:  os.LookupEnv,
	}, nil
}

// splitRemote extracts host and project path from an scp-like or url-style
// git remote.
func splitRemote(remote string) (host, path string, err error) {
	remote = strings.TrimSpace(remote)
	remote = strings.TrimSuffix(remote, ".git")

	switch {
	case strings.HasPrefix(remote, "http://"), strings.HasPrefix(remote, "https://"), strings.HasPrefix(remote, "ssh://"):
		u, parseErr := url.Parse(remote)
		if parseErr != nil {
			return "", "", fmt.Errorf("%w: remote url %q", keelerrors.ErrRemoteMissing, remote)
		}
		return u.Hostname(), strings.Trim(u.Path, "/"), nil
	case strings.Contains(remote, "@") && strings.Contains(remote, ":"):
		// scp-like: git@host:group/project
		after := remote[strings.Index(remote, "@")+1:]
		h, p, ok := strings.Cut(after, ":")
		if !ok || h == "" || p == "" {
			return "", "", fmt.Errorf("%w: remote url %q", keelerrors.ErrRemoteMissing, remote)
		}
		return h, strings.Trim(p, "/"), nil
	default:
		return "", "", fmt.Errorf("%w: remote url %q", keelerrors.ErrRemoteMissing, remote)
	}
}

// Validate fails when no GitLab token is available in the environment.
func (g *GitLab) Validate(_ context.Context) error {
	if token, ok := g.lookupEnv(constants.EnvGitLabToken); !ok || token == "" {
		return fmt.Errorf("%w: %s", keelerrors.ErrTokenMissing, constants.EnvGitLabToken)
	}
	return nil
}

// SetNotes stores the release notes used by the next CreateRelease and
// returned by Notes for the interactive preview.
func (g *GitLab) SetNotes(notes string) { g.notes = notes }

// Notes returns the pending release notes.
func (g *GitLab) Notes() string { return g.notes }

type gitlabReleaseRequest struct {
	Name        string `json:"name"`
	TagName     string `json:"tag_name"`
	Description string `json:"description"`
}

type gitlabReleaseResponse struct {
	Links struct {
		Self string `json:"self"`
	} `json:"_links"`
}

// CreateRelease creates the GitLab release for rel.TagName. Empty
// rel.Notes falls back to the stored notes.
func (g *GitLab) CreateRelease(ctx context.Context, rel Release) error {
	token, _ := g.lookupEnv(constants.EnvGitLabToken)

	notes := rel.Notes
	if notes == "" {
		notes = g.notes
	}

	body, err := json.Marshal(gitlabReleaseRequest{
		Name:        rel.Name,
		TagName:     rel.TagName,
		Description: notes,
	})
	if err != nil {
		return keelerrors.Wrap(err, "encode release request")
	}

	endpoint := g.baseURL + "/projects/" + g.project + "/releases"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return keelerrors.Wrap(err, "build release request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PRIVATE-TOKEN", token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", keelerrors.ErrGitLabOperation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %w: status %d: %s",
			keelerrors.ErrReleaseNotCreated, keelerrors.ErrGitLabOperation,
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed gitlabReleaseResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&parsed); decodeErr == nil && parsed.Links.Self != "" {
		g.releaseURL = parsed.Links.Self
	} else {
		g.releaseURL = g.webURL + "/-/releases/" + url.PathEscape(rel.TagName)
	}
	g.released = true
	return nil
}

// IsReleased reports whether CreateRelease succeeded this run.
func (g *GitLab) IsReleased() bool { return g.released }

// ReleaseURL returns the created release's url, or "".
func (g *GitLab) ReleaseURL() string { return g.releaseURL }

package pipeline

import (
	"context"
	"sync"

	"github.com/mrz1836/keel/internal/hosting"
	"github.com/mrz1836/keel/internal/npm"
)

// recorder captures the global call order across all fake clients.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recorder) has(name string) bool {
	for _, c := range r.list() {
		if c == name {
			return true
		}
	}
	return false
}

// indexOf returns the position of the first occurrence, or -1.
func (r *recorder) indexOf(name string) int {
	for i, c := range r.list() {
		if c == name {
			return i
		}
	}
	return -1
}

type fakeGit struct {
	rec *recorder

	latestTag string
	rootDir   bool
	remoteURL string
	status    string

	validateErr error
	commitErr   error
	tagErr      error
	pushErr     error
	cloneErr    error
}

func newFakeGit(rec *recorder) *fakeGit {
	return &fakeGit{rec: rec, rootDir: true, remoteURL: "git@github.com:acme/widgets.git"}
}

func (f *fakeGit) Validate(context.Context) error {
	f.rec.add("git.validate")
	return f.validateErr
}
func (f *fakeGit) LatestTag() string { return f.latestTag }
func (f *fakeGit) IsRootDir() bool   { return f.rootDir }
func (f *fakeGit) RemoteURL() string { return f.remoteURL }

func (f *fakeGit) Status(context.Context) (string, error) {
	f.rec.add("git.status")
	return f.status, nil
}

func (f *fakeGit) Stage(_ context.Context, files ...string) error {
	f.rec.add("git.stage " + files[0])
	return nil
}

func (f *fakeGit) StageDir(_ context.Context, dir string) error {
	f.rec.add("git.stagedir " + dir)
	return nil
}

func (f *fakeGit) Reset(_ context.Context, files ...string) error {
	f.rec.add("git.reset " + files[0])
	return nil
}

func (f *fakeGit) Commit(_ context.Context, version string) error {
	f.rec.add("git.commit " + version)
	return f.commitErr
}

func (f *fakeGit) Tag(_ context.Context, name, _ string) error {
	f.rec.add("git.tag " + name)
	return f.tagErr
}

func (f *fakeGit) Push(context.Context) error {
	f.rec.add("git.push")
	return f.pushErr
}

func (f *fakeGit) Clone(_ context.Context, url, dir string) error {
	f.rec.add("git.clone " + url)
	return f.cloneErr
}

func (f *fakeGit) TagName(version string) string { return "v" + version }

type fakeHosting struct {
	rec  *recorder
	name string

	validateErr error
	createErr   error
	notes       string
	released    bool
	url         string
}

func (f *fakeHosting) Validate(context.Context) error {
	f.rec.add(f.name + ".validate")
	return f.validateErr
}

func (f *fakeHosting) SetNotes(notes string) { f.notes = notes }
func (f *fakeHosting) Notes() string         { return f.notes }

func (f *fakeHosting) CreateRelease(_ context.Context, rel hosting.Release) error {
	f.rec.add(f.name + ".release " + rel.TagName)
	if f.createErr != nil {
		return f.createErr
	}
	f.released = true
	return nil
}

func (f *fakeHosting) IsReleased() bool   { return f.released }
func (f *fakeHosting) ReleaseURL() string { return f.url }

type fakeGitHub struct {
	fakeHosting
	uploadErr error
}

func (f *fakeGitHub) UploadAssets(_ context.Context, tagName string, assets []string) error {
	if len(assets) == 0 {
		return nil
	}
	f.rec.add("github.assets " + tagName)
	return f.uploadErr
}

type fakeNpm struct {
	rec      *recorder
	manifest *npm.Manifest

	validateErr error
	bumpErr     error
	publishErr  error

	published   bool
	skipped     bool
	lastPublish npm.PublishOptions
}

func newFakeNpm(rec *recorder, manifest *npm.Manifest) *fakeNpm {
	return &fakeNpm{rec: rec, manifest: manifest}
}

func (f *fakeNpm) Validate(context.Context) error {
	f.rec.add("npm.validate")
	return f.validateErr
}

func (f *fakeNpm) Bump(_ context.Context, version string) error {
	f.rec.add("npm.bump " + version)
	if f.bumpErr == nil {
		f.manifest.Version = version
	}
	return f.bumpErr
}

func (f *fakeNpm) Publish(_ context.Context, opts npm.PublishOptions) error {
	f.rec.add("npm.publish " + opts.Version)
	f.lastPublish = opts
	if f.publishErr != nil {
		return f.publishErr
	}
	if f.manifest.Private {
		f.skipped = true
		return nil
	}
	f.published = true
	return nil
}

func (f *fakeNpm) IsPublished() bool      { return f.published }
func (f *fakeNpm) Skipped() bool          { return f.skipped }
func (f *fakeNpm) PackageURL() string     { return "https://www.npmjs.com/package/" + f.manifest.Name }
func (f *fakeNpm) Manifest() *npm.Manifest { return f.manifest }

// passRunner executes enabled steps directly, with no UI.
func passRunner(_ context.Context, step Step) error {
	if !step.Enabled {
		return nil
	}
	return step.Task(context.Background())
}

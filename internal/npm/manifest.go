package npm

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Manifest is the subset of package.json the pipeline reads.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Private bool   `json:"private"`
}

// ReadManifest loads the package manifest from dir. A missing file
// returns ErrManifestMissing so callers can treat the project as not
// npm-managed.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, constants.Manifest)
	data, err := os.ReadFile(path) //#nosec G304 -- path is the well-known manifest name under the project dir
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, keelerrors.Wrapf(keelerrors.ErrManifestMissing, "%s", path)
		}
		return nil, keelerrors.Wrapf(err, "read %s", path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, keelerrors.Wrapf(err, "parse %s", path)
	}
	return &m, nil
}

package repository

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

const (
	layoutsDir  = "layouts"
	profilesDir = "profiles"
	yamlExt     = ".yaml"
)

// File stores each layout and profile as a YAML document under a root
// directory: <root>/layouts/<id>.yaml and <root>/profiles/<id>.yaml
type File struct {
	root string
}

var _ Repository = (*File)(nil)

func NewFile(root string) (*File, error) {
	for _, sub := range []string{layoutsDir, profilesDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create repository directory", goerr.V("path", filepath.Join(root, sub)))
		}
	}
	return &File{root: root}, nil
}

func (r *File) path(kind, id string) string {
	return filepath.Join(r.root, kind, id+yamlExt)
}

func (r *File) GetLayout(_ context.Context, id model.LayoutID) (*model.Layout, error) {
	probe := model.Layout{ID: id}
	if probe.Validate() != nil {
		return nil, goerr.Wrap(model.ErrLayoutNotFound, "failed to get layout", goerr.V("id", id))
	}

	var l model.Layout
	if err := readYAML(r.path(layoutsDir, string(id)), &l); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(model.ErrLayoutNotFound, "failed to get layout", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to read layout", goerr.V("id", id))
	}
	if l.ID == "" {
		l.ID = id
	}
	return &l, nil
}

func (r *File) PutLayout(_ context.Context, layout *model.Layout) error {
	if err := layout.Validate(); err != nil {
		return goerr.Wrap(err, "invalid layout", goerr.V("id", layout.ID))
	}
	return writeYAML(r.path(layoutsDir, string(layout.ID)), layout)
}

func (r *File) ListLayouts(ctx context.Context) ([]*model.Layout, error) {
	entries, err := os.ReadDir(filepath.Join(r.root, layoutsDir))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read layouts directory")
	}

	// ReadDir returns entries sorted by file name
	layouts := make([]*model.Layout, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != yamlExt {
			continue
		}
		l, err := r.GetLayout(ctx, model.LayoutID(strings.TrimSuffix(e.Name(), yamlExt)))
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	return layouts, nil
}

func (r *File) GetProfile(_ context.Context, id model.ProfileID) (*model.UserProfile, error) {
	probe := model.UserProfile{ID: id}
	if probe.Validate() != nil {
		return nil, goerr.Wrap(model.ErrProfileNotFound, "failed to get profile", goerr.V("id", id))
	}

	var p model.UserProfile
	if err := readYAML(r.path(profilesDir, string(id)), &p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(model.ErrProfileNotFound, "failed to get profile", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to read profile", goerr.V("id", id))
	}
	if p.ID == "" {
		p.ID = id
	}
	return &p, nil
}

func (r *File) PutProfile(_ context.Context, profile *model.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return goerr.Wrap(err, "invalid profile", goerr.V("id", profile.ID))
	}
	return writeYAML(r.path(profilesDir, string(profile.ID)), profile)
}

func (r *File) Close() error { return nil }

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return goerr.Wrap(err, "failed to decode yaml", goerr.V("path", path))
	}
	return nil
}

// writeYAML replaces path atomically through a temp file in the same
// directory
func writeYAML(path string, in any) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return goerr.Wrap(err, "failed to encode yaml", goerr.V("path", path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("path", path))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to write temp file", goerr.V("path", path))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temp file", goerr.V("path", path))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return goerr.Wrap(err, "failed to replace file", goerr.V("path", path))
	}
	return nil
}

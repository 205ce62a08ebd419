// Package traces reads the trace tree written by the harness:
// <root>/<package>/<class>/<method>[-<session>].zip
package traces

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gotrs-io/pwharness/session"
	"go.uber.org/multierr"
)

// Trace is one saved trace archive.
type Trace struct {
	Path    string    `yaml:"path"`
	Package string    `yaml:"package"`
	Class   string    `yaml:"class"`
	Method  string    `yaml:"method"`
	Size    int64     `yaml:"size"`
	ModTime time.Time `yaml:"mod_time"`
}

// List returns every trace under root, newest first. A missing root holds no
// traces.
func List(root string) ([]Trace, error) {
	var out []Trace
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != session.TraceExt {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, parse(root, path, info))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

func parse(root, path string, info fs.FileInfo) Trace {
	t := Trace{Path: path, Size: info.Size(), ModTime: info.ModTime()}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return t
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	t.Method = strings.TrimSuffix(parts[len(parts)-1], session.TraceExt)
	if len(parts) >= 3 {
		t.Package = parts[len(parts)-3]
		t.Class = parts[len(parts)-2]
	}
	return t
}

// Prune deletes traces last modified before cutoff and then removes the
// directories left empty. It returns the deleted traces.
func Prune(root string, cutoff time.Time) ([]Trace, error) {
	all, err := List(root)
	if err != nil {
		return nil, err
	}
	var removed []Trace
	for _, t := range all {
		if !t.ModTime.Before(cutoff) {
			continue
		}
		if rmErr := os.Remove(t.Path); rmErr != nil {
			err = multierr.Append(err, rmErr)
			continue
		}
		removed = append(removed, t)
		removeEmptyParents(root, filepath.Dir(t.Path))
	}
	return removed, err
}

func removeEmptyParents(root, dir string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			return
		}
	}
}

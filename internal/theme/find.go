package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultName is used when neither the command line nor the config name a theme.
const DefaultName = "default"

// DefaultDirs are searched in order: the user's themes, then the system ones.
func DefaultDirs() []string {
	dirs := []string{}
	if cfg, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(cfg, "gopanel", "themes"))
	}
	return append(dirs, "/usr/local/share/gopanel/themes", "/usr/share/gopanel/themes")
}

// Find resolves name against each directory in dirs, then as a path of its
// own. The default theme falls back to the builtin one.
func Find(name string, dirs []string) (*Theme, error) {
	for _, dir := range dirs {
		t, err := Load(filepath.Join(dir, name))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return t, err
	}

	t, err := Load(name)
	if errors.Is(err, ErrNotFound) && name == DefaultName {
		return Builtin(), nil
	}
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return t, err
}

// Listing is the set of themes installed in one directory.
type Listing struct {
	Dir    string
	Themes []string
}

// List returns the themes of every directory, in search order. Directories
// that don't exist are reported with no themes.
func List(dirs []string) []Listing {
	out := make([]Listing, 0, len(dirs))
	for _, dir := range dirs {
		l := Listing{Dir: dir}
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, e.Name(), FileName)); err == nil {
				l.Themes = append(l.Themes, e.Name())
			}
		}
		sort.Strings(l.Themes)
		out = append(out, l)
	}
	return out
}

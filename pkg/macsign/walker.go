package macsign

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blacktop/go-macho"
)

// BundleWalker returns the nested signable paths of a bundle, ordered
// innermost-first. The root bundle itself is not included.
type BundleWalker interface {
	Walk(bundlePath string) ([]string, error)
}

type defaultWalker struct{}

// Walk collects nested bundles (.app, .framework, .xpc), loose dylibs, and
// Mach-O executables under Helpers directories. Everything nested must be
// signed before the bundle that contains it, so the result is sorted
// deepest-first.
func (defaultWalker) Walk(bundlePath string) ([]string, error) {
	root := filepath.Clean(bundlePath)
	var paths []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		ext := filepath.Ext(path)
		if info.IsDir() {
			switch ext {
			case ".app", ".framework", ".xpc":
				paths = append(paths, path)
			}
			return nil
		}

		switch {
		case ext == ".dylib":
			paths = append(paths, path)
		case ext == "" && filepath.Base(filepath.Dir(path)) == "Helpers" && isMachO(path):
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortInnermostFirst(paths)
	return paths, nil
}

func sortInnermostFirst(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		di := strings.Count(paths[i], string(os.PathSeparator))
		dj := strings.Count(paths[j], string(os.PathSeparator))
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})
}

func isMachO(path string) bool {
	if f, err := macho.Open(path); err == nil {
		f.Close()
		return true
	}
	if f, err := macho.OpenFat(path); err == nil {
		f.Close()
		return true
	}
	return false
}

package content

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// MountPoint prefixes every package path in the content root.
	MountPoint = "/Game"
	// AssetPattern matches the files that are indexed as packages.
	AssetPattern = "**/*.{uasset,umap}"
)

type (
	Asset struct {
		// Package is the long package name, e.g. /Game/Spells/Fireball.
		Package string
		// File is the absolute path of the .uasset or .umap file.
		File string
	}

	// Index maps package names to asset files. Lookups ignore case, as package names do.
	Index struct {
		root   string
		assets map[string]Asset
	}
)

// BuildIndex walks root for assets; <root>/Spells/Fireball.uasset becomes /Game/Spells/Fireball.
func BuildIndex(root string) (*Index, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root %s is not a directory", root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), AssetPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	idx := &Index{root: root, assets: make(map[string]Asset, len(matches))}
	for _, rel := range matches {
		pkg := PackageName(rel)
		idx.assets[strings.ToLower(pkg)] = Asset{
			Package: pkg,
			File:    filepath.Join(root, filepath.FromSlash(rel)),
		}
	}
	return idx, nil
}

// PackageName converts a slash separated path relative to the content root into a package name.
func PackageName(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	return path.Join(MountPoint, strings.TrimSuffix(rel, path.Ext(rel)))
}

func (idx *Index) Lookup(pkg string) (Asset, bool) {
	a, ok := idx.assets[strings.ToLower(strings.TrimSuffix(pkg, "/"))]
	return a, ok
}

func (idx *Index) Len() int {
	return len(idx.assets)
}

// Packages lists every indexed package name, sorted.
func (idx *Index) Packages() []string {
	list := make([]string, 0, len(idx.assets))
	for _, a := range idx.assets {
		list = append(list, a.Package)
	}
	sort.Strings(list)
	return list
}

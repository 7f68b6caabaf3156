package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

// Exports resolves command-line arguments to export files. A file argument is
// taken as is whatever its extension; a directory is walked for *.txt files.
// Results keep argument order, directory entries sorted by path.
func Exports(paths []string) ([]FileInfo, error) {
	var files []FileInfo
	seen := make(map[string]bool)
	add := func(fi FileInfo) {
		if seen[fi.Path] {
			return
		}
		seen[fi.Path] = true
		files = append(files, fi)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			add(FileInfo{Path: p, Mtime: info.ModTime().Unix(), Size: info.Size()})
			continue
		}
		found, err := scanDir(p)
		if err != nil {
			return nil, err
		}
		for _, fi := range found {
			add(fi)
		}
	}
	return files, nil
}

func scanDir(root string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

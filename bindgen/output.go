package bindgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dave/jennifer/jen"
)

const generatedHeader = "Code generated by gdbind. DO NOT EDIT."

// OutputFile is one generated source, relative to its output root.
type OutputFile struct {
	Path string
	File *jen.File
}

// Render formats the file's source.
func (o OutputFile) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.File.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", o.Path, err)
	}
	return buf.Bytes(), nil
}

func newFile(pkgs Packages, path, name string) *jen.File {
	f := jen.NewFilePathName(path, name)
	f.HeaderComment(generatedHeader)
	f.ImportName(pkgs.FFI, "ffi")
	f.ImportName(pkgs.Builtin, "builtin")
	f.ImportName(pkgs.Sys, "sys")
	f.ImportName(pkgs.Classes(), "classes")
	return f
}

// Writer puts generated files on disk.
//
// Owned directories are deleted and recreated on every write ("." owns the
// root itself), so two generations must never target the same root at the
// same time.
type Writer struct {
	// DryRun renders everything but writes nothing.
	DryRun bool
}

// Write renders all files first, then clears each owned directory (relative
// to root) and writes the batch. It returns the absolute paths written, in
// sorted order. Nothing is touched on disk if any file fails to render.
func (w *Writer) Write(root string, files []OutputFile, owned []string) ([]string, error) {
	rendered := make(map[string][]byte, len(files))
	for _, f := range files {
		src, err := f.Render()
		if err != nil {
			return nil, err
		}
		rendered[filepath.Join(root, filepath.FromSlash(f.Path))] = src
	}

	paths := make([]string, 0, len(rendered))
	for p := range rendered {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	if w.DryRun {
		return paths, nil
	}

	for _, dir := range owned {
		full := filepath.Join(root, filepath.FromSlash(dir))
		if err := os.RemoveAll(full); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", full, err)
		}
		if err := os.MkdirAll(full, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", full, err)
		}
	}

	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, rendered[p], 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", p, err)
		}
	}
	log.Infof("wrote %d files under %s", len(paths), root)
	return paths, nil
}

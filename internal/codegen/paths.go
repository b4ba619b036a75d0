package codegen

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/zerorepo/zerorepo/internal/rpg"
)

// testFilePath derives a node's test file location from its owning
// source file, per spec.md §4.7: the test file for a source at
// src/a/b/x.py is tests/a/b/test_x.py.
func testFilePath(sourcePath string) string {
	dir := path.Dir(sourcePath)
	base := path.Base(sourcePath)
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)

	rel := strings.TrimPrefix(dir, "src")
	rel = strings.TrimPrefix(rel, "/")

	return path.Join("tests", rel, "test_"+name+ext)
}

// materializeDirectories creates every folder node's path_hint on disk,
// plus the tests/ root, before Stage C traversal begins.
func (c *Controller) materializeDirectories(g *rpg.Graph) error {
	if err := os.MkdirAll(filepath.Join(c.cfg.RepoRoot, "tests"), 0755); err != nil {
		return err
	}
	for _, folder := range g.NodesByKind(rpg.KindFolder) {
		if folder.PathHint == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Join(c.cfg.RepoRoot, folder.PathHint), 0755); err != nil {
			return err
		}
	}
	return nil
}

// writeRepoFile writes content to relPath under the controller's repo
// root, creating parent directories as needed.
func (c *Controller) writeRepoFile(relPath, content string) error {
	full := filepath.Join(c.cfg.RepoRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0644)
}

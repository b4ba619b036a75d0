package implementation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zerorepo/zerorepo/internal/llmgw"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/rpg"
)

// interfaceWorkerCount is spec.md §5's bounded-pool sizing applied to B2's
// per-file interface generation: min(8, files/4), floored at 1.
func interfaceWorkerCount(files int) int {
	n := files / 4
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// buildInterfaces asks the LLM, once per file node, for imports plus one
// typed documented stub per capability assigned to that file; the
// generated source is returned keyed by the file's path_hint. Per-file
// generation is independent (each file's prompt and response touch only
// that file's slot), so files are processed concurrently with a bounded
// worker pool, per spec.md §5's "node-level work ... may be executed
// concurrently with a bounded worker pool" for B2 interface generation.
func buildInterfaces(ctx context.Context, gw llmgw.Gateway, files map[string]*rpg.Node) map[string]string {
	paths := make([]string, 0, len(files))
	for filePath, file := range files {
		if len(file.Meta.Features()) == 0 {
			continue
		}
		paths = append(paths, filePath)
	}
	sort.Strings(paths)

	var mu sync.Mutex
	out := make(map[string]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(interfaceWorkerCount(len(paths)))
	for _, filePath := range paths {
		filePath := filePath
		file := files[filePath]
		g.Go(func() error {
			features := file.Meta.Features()
			prompt := fmt.Sprintf(
				"File: %s\nCapabilities this file must implement:\n%s\n\n"+
					"Write the file's imports plus one typed, documented function or class stub per capability, "+
					"with empty bodies (pass/raise NotImplementedError). Do not implement logic.",
				filePath, strings.Join(features, "\n"),
			)

			resp, err := gw.Generate(gctx, llmgw.Request{
				Prompt:      prompt,
				System:      "implementation.interfaces",
				Temperature: 0.2,
				MaxTokens:   1024,
			})
			if err != nil {
				logging.Implementation("implementation: interface generation failed for %q: %v", filePath, err)
				return nil
			}

			mu.Lock()
			out[filePath] = resp.Content
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

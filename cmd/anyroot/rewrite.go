package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/anyroot/anyroot/internal/rewrite"
	"github.com/spf13/cobra"
)

func newRewriteCmd() *cobra.Command {
	var rootDir string
	var outDir string
	var attributes []string
	var extensions []string

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Copy a site, relativizing root-absolute links in HTML files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootDir == "" {
				return errors.New("root directory is required")
			}
			if outDir == "" {
				return errors.New("output directory is required")
			}

			rw, err := rewrite.New(rewrite.Options{Attributes: attributes, Extensions: extensions})
			if err != nil {
				return err
			}

			files, links, err := rewriteTree(rw, rootDir, outDir)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "rewrote %d links in %d files\n", links, files)
			return err
		},
	}

	cmd.Flags().StringVar(&rootDir, "root", "", "Site root directory")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory")
	cmd.Flags().StringSliceVar(&attributes, "attr", nil, "Attributes to rewrite (default href,src,action)")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "File extensions treated as HTML (default .html,.htm)")

	return cmd
}

func rewriteTree(rw *rewrite.Rewriter, rootDir, outDir string) (int, int, error) {
	files := 0
	links := 0

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(outDir, rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		pagePath := filepath.ToSlash(rel)
		if rw.WantsPath(pagePath) {
			rewritten, count := rw.Rewrite(pagePath, content)
			if count > 0 {
				files++
				links += count
			}
			content = rewritten
		}

		return os.WriteFile(dest, content, 0o644)
	})
	if err != nil {
		return 0, 0, err
	}
	return files, links, nil
}

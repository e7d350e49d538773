package site

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// stagePrepareOutput picks the directory stages write into. With
// output.clean the build goes to a staging sibling that replaces the output
// directory only after every check passed.
func stagePrepareOutput(_ context.Context, bs *buildState) error {
	cfg := bs.b.cfg
	if err := guardOutput(bs.outDir, cfg.Root, bs.b.sourceDirs()...); err != nil {
		return err
	}
	if cfg.Output.Clean {
		bs.workDir = stagingDir(bs.outDir, bs.report.BuildID)
		if err := os.RemoveAll(bs.workDir); err != nil {
			return errors.FileSystemError(err, "failed to clear staging directory").WithContext("path", bs.workDir).Build()
		}
	}
	if err := os.MkdirAll(bs.workDir, 0o755); err != nil {
		return errors.FileSystemError(err, "failed to create output directory").WithContext("path", bs.workDir).Build()
	}
	return nil
}

// stagePromote swaps the staging directory into place.
func stagePromote(_ context.Context, bs *buildState) error {
	if bs.workDir == bs.outDir {
		return nil
	}
	if err := os.RemoveAll(bs.outDir); err != nil {
		return errors.FileSystemError(err, "failed to remove previous output").WithContext("path", bs.outDir).Build()
	}
	if err := os.Rename(bs.workDir, bs.outDir); err != nil {
		return errors.FileSystemError(err, "failed to promote staged output").
			WithContext("from", bs.workDir).
			WithContext("to", bs.outDir).
			Build()
	}
	bs.workDir = bs.outDir
	return nil
}

// guardOutput refuses output directories that would wipe the project or
// overlap a source directory.
func guardOutput(out, root string, sources ...string) error {
	out = filepath.Clean(out)
	if out == filepath.Dir(out) || within(root, out) {
		return errors.ConfigError("output directory must be a sub-directory of the project").
			WithContext("output", out).
			Build()
	}
	for _, src := range sources {
		if src == "" {
			continue
		}
		if within(src, out) || within(out, src) {
			return errors.ConfigError("output directory overlaps a source directory").
				WithContext("output", out).
				WithContext("source", filepath.Clean(src)).
				Build()
		}
	}
	return nil
}

// within reports whether p is dir or lies below it.
func within(p, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

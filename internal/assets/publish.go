package assets

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// Publish copies the asset tree under srcDir to outDir/_assets, preserving
// sub-directories. A missing srcDir publishes nothing. It returns the number
// of files copied.
func Publish(srcDir, outDir string) (int, error) {
	if _, err := os.Stat(srcDir); os.IsNotExist(err) {
		return 0, nil
	}
	dst := filepath.Join(outDir, PublicDir)
	copied := 0
	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := copyFile(p, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, errors.FileSystemError(err, "failed to publish assets").
			WithContext("src", srcDir).
			WithContext("dst", dst).
			Build()
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src is inside the configured asset directory.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G302 -- published site files are world-readable.
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

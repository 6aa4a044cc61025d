package handler

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"filesched/internal/task"
)

var errUnsupportedFormat = errors.New("unsupported compression format")

// Compress archives the task directory into a timestamp-qualified file
// written inside the directory itself, so the archive is discoverable
// alongside its source. Repeated fires produce distinct archives, never
// overwrites.
func Compress(_ context.Context, t task.Task) Outcome {
	dir := t.Directory
	if err := checkDirectory(dir); err != nil {
		return errorOutcome("", "Directory not found")
	}

	name := fmt.Sprintf("%s_%d.%s", filepath.Base(dir), time.Now().Unix(), t.CompressionFormat)
	out := filepath.Join(dir, name)

	var err error
	switch t.CompressionFormat {
	case task.FormatZip:
		err = writeZip(dir, out)
	case task.FormatTar:
		err = writeTar(dir, out)
	default:
		err = fmt.Errorf("%w %q", errUnsupportedFormat, t.CompressionFormat)
	}
	if err != nil {
		// Leave no partial archive behind.
		_ = os.Remove(out)
		return errorOutcome(out, "Error: "+err.Error())
	}
	return infoOutcome(out, "Compressed")
}

// writeZip archives dir recursively with entry names relative to dir.
// The archive being written is skipped so it never contains itself.
func writeZip(dir, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == out {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, src)
		_ = src.Close()
		return err
	})
	if err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// writeTar archives dir recursively with entries rooted at the directory's
// basename (base/rel/...), mirroring the zip layout one level up.
func writeTar(dir, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	base := filepath.Base(dir)
	tw := tar.NewWriter(f)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == out {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		if rel == "." {
			hdr.Name = base + "/"
		} else {
			hdr.Name = filepath.ToSlash(filepath.Join(base, rel))
			if d.IsDir() {
				hdr.Name += "/"
			}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, src)
		_ = src.Close()
		return err
	})
	if err != nil {
		_ = tw.Close()
		return err
	}
	return tw.Close()
}

func checkDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

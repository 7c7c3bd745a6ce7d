// Package bundle packs a release directory into a zip archive suitable
// for the deployment backend.
//
// A Bundle is backed by a temporary file. Make acquires it and Close
// releases it, removing the file; use With to have both done around a
// function.
package bundle

import (
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// DefaultManifest is the file the deployment backend reads from the
// root of every bundle.
const DefaultManifest = "appspec.yml"

type Options struct {
	// Leave out files and directories whose names start with a dot.
	// Hidden directories are not descended into.
	IgnoreHidden bool
	// Name of the manifest that must be present at the root of the
	// source directory. Defaults to DefaultManifest.
	Manifest string
	// Also require the manifest to be a YAML mapping with a version.
	// Off unless asked for; presence is all the deployment backend
	// needs from the bundler.
	CheckManifest bool
	// Compression method to try first; deflate if zero. Entries are
	// stored uncompressed if no compressor is registered for it.
	Compression uint16
	// Where to put the temporary archive; the system default if empty.
	TempDir string
	Logger  log.Logger
}

// Bundle is a finished archive, positioned at its start.
type Bundle struct {
	file    *os.File
	size    int64
	digest  string
	entries []string
	method  uint16
}

func (b *Bundle) Read(p []byte) (int, error) {
	return b.file.Read(p)
}

func (b *Bundle) ReadAt(p []byte, off int64) (int, error) {
	return b.file.ReadAt(p, off)
}

func (b *Bundle) Seek(offset int64, whence int) (int64, error) {
	return b.file.Seek(offset, whence)
}

// Size is the length of the archive in bytes.
func (b *Bundle) Size() int64 {
	return b.size
}

// Digest is the hex BLAKE3 hash of the archive.
func (b *Bundle) Digest() string {
	return b.digest
}

// Entries lists the archived paths, slash separated and relative to
// the source directory, in the order they were written.
func (b *Bundle) Entries() []string {
	return append([]string(nil), b.entries...)
}

// Compressed reports whether entries were compressed rather than
// stored.
func (b *Bundle) Compressed() bool {
	return b.method != zip.Store
}

// Close releases the archive and removes its temporary file. It is safe
// to call more than once.
func (b *Bundle) Close() error {
	if b.file == nil {
		return nil
	}
	name := b.file.Name()
	closeErr := b.file.Close()
	b.file = nil
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return closeErr
}

// With makes a bundle, passes it to f, and releases it whatever
// happens.
func With(source string, opts Options, f func(*Bundle) error) error {
	b, err := Make(source, opts)
	if err != nil {
		return err
	}
	defer b.Close()
	return f(b)
}

// Make walks source and archives every file under it, at its path
// relative to source. Entries are compressed with opts.Compression, or
// stored if no compressor is registered for it. If the manifest is not
// among the archived files (or fails the check, when opts.CheckManifest
// is set), or anything goes wrong, the partial archive is removed and an
// error returned.
func Make(source string, opts Options) (_ *Bundle, err error) {
	if opts.Manifest == "" {
		opts.Manifest = DefaultManifest
	}
	if opts.Compression == 0 {
		opts.Compression = zip.Deflate
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	root, err := filepath.Abs(source)
	if err != nil {
		return nil, errors.Wrap(err, "resolving source directory")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "reading source directory")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("source %s is not a directory", root)
	}

	f, err := os.CreateTemp(opts.TempDir, "bundle-*.zip")
	if err != nil {
		return nil, errors.Wrap(err, "creating temporary archive")
	}
	b := &Bundle{file: f, method: opts.Compression}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	zw := zip.NewWriter(f)
	foundManifest := false
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if opts.IgnoreHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !fi.Mode().IsRegular() {
			// a link to a directory, or something that isn't a file at all
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == opts.Manifest {
			if opts.CheckManifest {
				if err := checkManifest(path); err != nil {
					return err
				}
			}
			foundManifest = true
		}
		if err := b.add(zw, path, name, fi); err != nil {
			return errors.Wrapf(err, "archiving %s", name)
		}
		return nil
	})
	if closeErr := zw.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		return nil, walkErr
	}
	if !foundManifest {
		return nil, ErrMissingManifest(filepath.Join(root, filepath.FromSlash(opts.Manifest)))
	}

	hash := blake3.New()
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if b.size, err = io.Copy(hash, f); err != nil {
		return nil, errors.Wrap(err, "hashing archive")
	}
	b.digest = hex.EncodeToString(hash.Sum(nil))
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	logger.Log("bundle", root, "entries", len(b.entries), "bytes", b.size, "compressed", b.Compressed(), "blake3", b.digest)
	return b, nil
}

func (b *Bundle) add(zw *zip.Writer, path, name string, fi os.FileInfo) error {
	hdr, err := zip.FileInfoHeader(fi)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = b.method
	w, err := zw.CreateHeader(hdr)
	if errors.Is(err, zip.ErrAlgorithm) && b.method != zip.Store {
		b.method = zip.Store
		hdr.Method = zip.Store
		w, err = zw.CreateHeader(hdr)
	}
	if err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	b.entries = append(b.entries, name)
	return nil
}

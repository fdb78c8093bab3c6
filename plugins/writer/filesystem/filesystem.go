// Package filesystem is the byte sink shared by the histogram writers: it
// maps artifact ids under one output root and replaces files atomically.
package filesystem

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

type Options struct {
	// OutputDir is required.
	OutputDir string `json:"output_dir"`
	// Atomic: write to a temp file in the same directory, then rename.
	// nil means true.
	Atomic *bool `json:"atomic,omitempty"`
	// Flat keeps only the base name of an id; nil means true.
	Flat *bool `json:"flat,omitempty"`
	// PermFile/PermDir: 0 uses 0644/0755.
	PermFile os.FileMode `json:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty"`
	// BufSize <= 0 uses 64 KiB.
	BufSize int `json:"buf_size,omitempty"`
}

type FS struct {
	root    string
	atomic  bool
	flat    bool
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
}

func New(opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, os.ErrInvalid
	}
	bsz := opts.BufSize
	if bsz <= 0 {
		bsz = 64 * 1024
	}
	pf := opts.PermFile
	if pf == 0 {
		pf = 0o644
	}
	pd := opts.PermDir
	if pd == 0 {
		pd = 0o755
	}
	flat := true
	if opts.Flat != nil {
		flat = *opts.Flat
	}
	atomic := true
	if opts.Atomic != nil {
		atomic = *opts.Atomic
	}
	return &FS{root: opts.OutputDir, atomic: atomic, flat: flat, permF: pf, permD: pd, bufSize: bsz}, nil
}

var _ contract.Writer = (*FS)(nil)

// Root returns the output directory.
func (w *FS) Root() string { return w.root }

// Write stores all bytes of r at the path mapped from id.
func (w *FS) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := w.prepare(id)
	if err != nil {
		return err
	}
	if w.atomic {
		return w.writeAtomic(ctx, dest, r)
	}
	return w.writeOverwrite(ctx, dest, r)
}

// Commit is Write for producers that need a file path instead of a stream
// (ROOT and SQLite files). fill creates the file at the given path; with
// Atomic the path is a temp file renamed over the destination on success.
func (w *FS) Commit(ctx context.Context, id contract.ArtifactID, fill func(path string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := w.prepare(id)
	if err != nil {
		return err
	}
	if !w.atomic {
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return err
		}
		return fill(dest)
	}
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*"+filepath.Ext(dest))
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	// the producer creates its own file
	_ = os.Remove(tmpPath)
	if err := fill(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = os.Chmod(tmpPath, w.permF)
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = syncDir(dir)
	return nil
}

// Path maps id to its destination and creates the parent directory, for
// producers that update a file in place.
func (w *FS) Path(id contract.ArtifactID) (string, error) { return w.prepare(id) }

func (w *FS) prepare(id contract.ArtifactID) (string, error) {
	dest, err := w.mapPath(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), w.permD); err != nil {
		return "", err
	}
	return dest, nil
}

// mapPath cleans and joins id under root, rejecting escapes.
func (w *FS) mapPath(id contract.ArtifactID) (string, error) {
	rel := filepath.Clean(string(id))
	if w.flat {
		rel = filepath.Base(rel)
		if rel == "." || rel == ".." || rel == "" || rel == string(filepath.Separator) {
			return "", contract.ErrPathInvalid
		}
		return filepath.Join(w.root, rel), nil
	}
	// no absolute paths, parent escapes or volume names
	if rel == "." || rel == "" {
		return "", contract.ErrPathInvalid
	}
	if filepath.IsAbs(rel) {
		return "", contract.ErrPathInvalid
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", contract.ErrPathInvalid
	}
	if vol := filepath.VolumeName(rel); vol != "" {
		return "", contract.ErrPathInvalid
	}
	return filepath.Join(w.root, rel), nil
}

func (w *FS) writeOverwrite(ctx context.Context, dest string, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return err
	}
	return bw.Flush()
}

func (w *FS) writeAtomic(ctx context.Context, dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, w.permF)

	bw := bufio.NewWriterSize(tmp, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		_ = bw.Flush()
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// best effort: persist the rename
	_ = syncDir(dir)
	return nil
}

// readerWithCtx checks ctx before every Read.
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

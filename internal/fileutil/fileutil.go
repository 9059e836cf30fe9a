package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Written describes a file committed by a Batch.
type Written struct {
	Path   string
	Size   int64
	SHA256 string
}

type staged struct {
	temp  string
	final string
	size  int64
	sum   string
}

// Batch stages files as temporaries in one directory and links them into
// place together on Commit. Nothing is visible under the final names until
// Commit succeeds.
type Batch struct {
	dir    string
	mode   os.FileMode
	staged []staged
	done   bool
}

// NewBatch starts a batch writing into dir with the given file mode.
func NewBatch(dir string, mode os.FileMode) (*Batch, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &Batch{dir: dir, mode: mode}, nil
}

// Add writes one file through write into a temporary beside its final name,
// hashing the content as it goes.
func (b *Batch) Add(name string, write func(io.Writer) error) error {
	if b.done {
		return errors.New("batch already finished")
	}
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid file name %q", name)
	}
	out, err := os.CreateTemp(b.dir, "."+name+".*.tmp")
	if err != nil {
		return err
	}
	temp := out.Name()
	fail := func(err error) error {
		_ = out.Close()
		_ = os.Remove(temp)
		return err
	}

	hasher := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(out, hasher)}
	if err := write(counter); err != nil {
		return fail(fmt.Errorf("write %s: %w", name, err))
	}
	if err := out.Sync(); err != nil {
		return fail(err)
	}
	if err := out.Chmod(b.mode); err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(temp)
		return err
	}

	b.staged = append(b.staged, staged{
		temp:  temp,
		final: filepath.Join(b.dir, name),
		size:  counter.n,
		sum:   hex.EncodeToString(hasher.Sum(nil)),
	})
	return nil
}

// ErrExists is returned by Commit when a final name is already taken.
var ErrExists = errors.New("file already exists")

// Commit links every staged file into place. Existing files are never
// replaced: if any name is taken or a link fails, the files committed so far
// are removed again along with every temporary.
func (b *Batch) Commit() ([]Written, error) {
	if b.done {
		return nil, errors.New("batch already finished")
	}
	b.done = true
	defer func() {
		for _, s := range b.staged {
			_ = os.Remove(s.temp)
		}
	}()

	out := make([]Written, 0, len(b.staged))
	for _, s := range b.staged {
		if err := os.Link(s.temp, s.final); err != nil {
			for _, done := range out {
				_ = os.Remove(done.Path)
			}
			if errors.Is(err, fs.ErrExist) {
				err = fmt.Errorf("%w: %s", ErrExists, s.final)
			}
			return nil, fmt.Errorf("commit %s: %w", filepath.Base(s.final), err)
		}
		out = append(out, Written{Path: s.final, Size: s.size, SHA256: s.sum})
	}
	return out, nil
}

// Abort removes every staged temporary. It is safe to call after Commit.
func (b *Batch) Abort() {
	if b.done {
		return
	}
	b.done = true
	for _, s := range b.staged {
		_ = os.Remove(s.temp)
	}
}

// VerifyFile checks a committed file against its recorded size and digest.
func VerifyFile(w Written) error {
	in, err := os.Open(w.Path)
	if err != nil {
		return err
	}
	defer in.Close()

	hasher := sha256.New()
	n, err := io.Copy(hasher, in)
	if err != nil {
		return err
	}
	if n != w.Size {
		return fmt.Errorf("size mismatch: recorded %d bytes, found %d bytes", w.Size, n)
	}
	if sum := hex.EncodeToString(hasher.Sum(nil)); sum != w.SHA256 {
		return fmt.Errorf("hash mismatch for %s", w.Path)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

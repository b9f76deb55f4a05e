package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrIntegrity reports a copy whose size or digest does not match the source.
var ErrIntegrity = errors.New("copy integrity mismatch")

// Digest is the size and SHA-256 of a file's contents.
type Digest struct {
	Size   int64
	SHA256 string
}

// HashFile streams path through SHA-256.
func HashFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	hasher := sha256.New()
	n, err := io.Copy(hasher, f)
	if err != nil {
		return Digest{}, err
	}
	return Digest{Size: n, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// SameContent reports whether two files have identical size and digest.
func SameContent(a, b string) (bool, error) {
	ai, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if ai.Size() != bi.Size() {
		return false, nil
	}
	ad, err := HashFile(a)
	if err != nil {
		return false, err
	}
	bd, err := HashFile(b)
	if err != nil {
		return false, err
	}
	return ad.SHA256 == bd.SHA256, nil
}

// CopyFileVerified copies src into a hidden temp file beside dst, re-reads the
// temp copy to confirm size and SHA-256, then renames it into place. dst is
// never left partially written. The source modification time is preserved.
func CopyFileVerified(src, dst string) (Digest, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return Digest{}, fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return Digest{}, err
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Digest{}, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".part-*")
	if err != nil {
		return Digest{}, err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(tmp, io.TeeReader(in, srcHasher))
	if err != nil {
		return Digest{}, err
	}
	if err := tmp.Sync(); err != nil {
		return Digest{}, err
	}
	if err := tmp.Close(); err != nil {
		return Digest{}, err
	}

	if written != srcInfo.Size() {
		return Digest{}, fmt.Errorf("%w: source %d bytes, copied %d bytes", ErrIntegrity, srcInfo.Size(), written)
	}
	copied, err := HashFile(tmpName)
	if err != nil {
		return Digest{}, fmt.Errorf("hash copy: %w", err)
	}
	if copied.SHA256 != hex.EncodeToString(srcHasher.Sum(nil)) {
		return Digest{}, fmt.Errorf("%w: sha256 differs after copy", ErrIntegrity)
	}
	_ = os.Chtimes(tmpName, srcInfo.ModTime(), srcInfo.ModTime())

	if err := Rename(tmpName, dst); err != nil {
		return Digest{}, err
	}
	committed = true
	_ = syncDir(dir)
	return copied, nil
}

// MoveFile renames src to dst, falling back to a verified copy followed by
// removal of src when the two paths are on different filesystems. The
// returned bool is true when the fallback was used.
func MoveFile(src, dst string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	err := Rename(src, dst)
	if err == nil {
		return false, nil
	}
	if !IsCrossDevice(err) {
		return false, err
	}
	if _, err := CopyFileVerified(src, dst); err != nil {
		return true, err
	}
	if err := os.Remove(src); err != nil {
		return true, fmt.Errorf("remove source after copy: %w", err)
	}
	return true, nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Swapped in tests to simulate cross-device failures and racing writers.
var (
	renameFunc = os.Rename
	linkFunc   = os.Link
)

// CrossDeviceError marks a rename that failed with EXDEV.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("rename %q -> %q crosses filesystems: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename wraps os.Rename and tags EXDEV failures as CrossDeviceError.
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		var linkErr *os.LinkError
		if errors.Is(err, unix.EXDEV) || (errors.As(err, &linkErr) && errors.Is(linkErr.Err, unix.EXDEV)) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// WriteFileAtomicNoOverwrite writes path via a temp file that is hard-linked
// into place, failing with os.ErrExist when path already exists. Filesystems
// without hard links fall back to check-then-rename.
func WriteFileAtomicNoOverwrite(path string, data []byte) error {
	if err := checkFree(path); err != nil {
		return err
	}
	return writeFileAtomic(path, data, publishNoClobber)
}

// WriteFileAtomicReplace writes path via temp file and rename, replacing any
// existing file.
func WriteFileAtomicReplace(path string, data []byte) error {
	return writeFileAtomic(path, data, Rename)
}

func checkFree(path string) error {
	info, err := os.Lstat(path)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("%s: is a directory", path)
		}
		return os.ErrExist
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func publishNoClobber(tmp, path string) error {
	err := linkFunc(tmp, path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrExist):
		return os.ErrExist
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.EOPNOTSUPP), errors.Is(err, unix.EMLINK):
		if err := checkFree(path); err != nil {
			return err
		}
		return Rename(tmp, path)
	default:
		return err
	}
}

func writeFileAtomic(path string, data []byte, publish func(tmp, path string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := publish(tmpName, path); err != nil {
		return err
	}
	_ = syncDir(dir)
	return nil
}

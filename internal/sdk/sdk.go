// Package sdk prepares a Go toolchain for the object package.
//
// goloader imports the toolchain internals as cmd/objfile/..., a copy of $GOROOT/src/cmd/internal.
package sdk

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZenLiuCN/fn"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	internalDir = "src/cmd/internal"
	objfileDir  = "src/cmd/objfile"
)

// Prepared reports whether goroot already carries the objfile copy.
func Prepared(goroot string) bool {
	fi, err := os.Stat(filepath.Join(goroot, objfileDir))
	return err == nil && fi.IsDir()
}

// Prepare copies the toolchain internals of goroot to where goloader imports them, done is false when already prepared.
func Prepare(logger log.Logger, goroot string) (done bool, err error) {
	src := filepath.Join(goroot, internalDir)
	dst := filepath.Join(goroot, objfileDir)
	if Prepared(goroot) {
		level.Info(logger).Log("msg", "go sdk already prepared", "dir", dst)
		return false, nil
	}
	level.Debug(logger).Log("msg", "prepare go sdk", "from", src, "to", dst)
	if err = CopyDir(src, dst, nil); err != nil {
		return
	}
	level.Info(logger).Log("msg", "prepared go sdk", "dir", dst)
	return true, nil
}

// Clean removes the objfile copy from goroot, done is false when there was none.
func Clean(logger log.Logger, goroot string) (done bool, err error) {
	dir := filepath.Join(goroot, objfileDir)
	if !Prepared(goroot) {
		level.Info(logger).Log("msg", "nothing to clean", "dir", dir)
		return false, nil
	}
	if err = os.RemoveAll(dir); err != nil {
		return
	}
	level.Info(logger).Log("msg", "cleaned go sdk", "dir", dir)
	return true, nil
}

// CopyFile from src to dest with optional src file info
func CopyFile(src string, dest string, si fs.FileInfo) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer fn.IgnoreClose(sf)()
	df, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer fn.IgnoreClose(df)()
	if _, err = io.Copy(df, sf); err != nil {
		return
	}
	if si == nil {
		if si, err = os.Stat(src); err != nil {
			return
		}
	}
	return os.Chmod(dest, si.Mode())
}

// CopyDir from src to dest with optional src file info
func CopyDir(src string, dest string, si fs.FileInfo) (err error) {
	if si == nil {
		if si, err = os.Stat(src); err != nil {
			return err
		}
	}
	if err = os.MkdirAll(dest, si.Mode().Perm()|0o700); err != nil {
		return err
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil || rel == "." {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		dp := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(dp, info.Mode().Perm()|0o700)
		}
		return CopyFile(path, dp, info)
	})
}

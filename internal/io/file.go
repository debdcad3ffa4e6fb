package ioutils

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// ErrSocketInUse is returned by PrepareSocket when a listener answers on the
// socket path.
var ErrSocketInUse = errors.New("socket is in use")

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with the given mode. If the directory already
// exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("/run/user/1000/dman", 0700)
func EnsureDir(path string, mode os.FileMode) error {
	return os.MkdirAll(path, mode)
}

// SocketAlive reports whether a listener accepts connections on path.
func SocketAlive(path string) bool {
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// PrepareSocket makes path ready for a new UNIX listener.
//
// The parent directory is created with mode 0700. A leftover socket file
// without a listener is removed. If a listener still answers, ErrSocketInUse
// is returned and the file is left alone.
func PrepareSocket(path string) error {
	if err := EnsureDir(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating runtime directory: %w", err)
	}

	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	if SocketAlive(path) {
		return fmt.Errorf("%s: %w", path, ErrSocketInUse)
	}
	return RemoveIfExists(path)
}

// RemoveIfExists removes path, ignoring a missing file.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

package external

import (
	"errors"
	"os"

	"go.uber.org/multierr"
)

// TempScope hands out temporary file paths and removes all of them on Cleanup. Use it as
//
//	scope := NewTempScope("")
//	defer func() { err = multierr.Append(err, scope.Cleanup()) }()
type TempScope struct {
	dir   string
	paths []string
}

// NewTempScope creates files under dir, or the system temp dir when dir is empty.
func NewTempScope(dir string) *TempScope {
	return &TempScope{dir: dir}
}

// File creates an empty temporary file whose name ends with suffix and returns its path.
func (s *TempScope) File(suffix string) (string, error) {
	f, err := os.CreateTemp(s.dir, "lsrn-*"+suffix)
	if err != nil {
		return "", err
	}
	s.paths = append(s.paths, f.Name())
	return f.Name(), f.Close()
}

// Paths returns the files created so far.
func (s *TempScope) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Cleanup removes every file of the scope. Files already gone are not an error.
func (s *TempScope) Cleanup() error {
	var err error
	for _, path := range s.paths {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = multierr.Append(err, rmErr)
		}
	}
	s.paths = nil
	return err
}

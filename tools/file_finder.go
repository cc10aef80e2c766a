package tools

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type FileFinder interface {
	// GetPlyFilesToProcess returns input itself when it is a file, otherwise the .ply files
	// directly inside the input folder sorted by name.
	GetPlyFilesToProcess(input string) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

func (f *StandardFileFinder) GetPlyFilesToProcess(input string) ([]string, error) {
	baseInfo, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !baseInfo.IsDir() {
		return []string{input}, nil
	}
	return f.getPlyFilesFromInputFolder(input, baseInfo)
}

func (f *StandardFileFinder) getPlyFilesFromInputFolder(input string, baseInfo os.FileInfo) ([]string, error) {
	var plyFiles = make([]string, 0)

	err := filepath.Walk(
		input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			// nested folders are not frames of this sequence
			if info.IsDir() && !os.SameFile(info, baseInfo) {
				return filepath.SkipDir
			}
			if !info.IsDir() && strings.ToLower(filepath.Ext(info.Name())) == ".ply" {
				plyFiles = append(plyFiles, path)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	sort.Strings(plyFiles)
	return plyFiles, nil
}

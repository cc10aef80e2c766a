package tools

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/golang/glog"
)

const WorkdirEnv = "LSRN_WORKDIR"

// GetRootFolder is where external tools are looked up when no explicit path is given:
// $LSRN_WORKDIR, the module root under go test, else the folder of the executable.
func GetRootFolder() string {
	assetsFromEnv := os.Getenv(WorkdirEnv)
	if assetsFromEnv != "" {
		return assetsFromEnv
	} else if strings.HasSuffix(os.Args[0], ".test") || strings.HasSuffix(os.Args[0], ".test.exe") {
		_, b, _, _ := runtime.Caller(0)
		return filepath.Dir(filepath.Dir(b))
	} else {
		ex, err := os.Executable()
		if err != nil {
			glog.Fatal("cannot retrieve executable directory", err)
		}
		return filepath.Dir(ex)
	}
}

// ToolPath returns path when set, otherwise name inside GetRootFolder.
func ToolPath(path, name string) string {
	if path != "" {
		return path
	}
	return filepath.Join(GetRootFolder(), name)
}

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetFilenameWithoutExtension returns the base name of filePath without its extension.
func GetFilenameWithoutExtension(filePath string) string {
	nameWext := filepath.Base(filePath)
	extension := filepath.Ext(nameWext)
	return nameWext[0 : len(nameWext)-len(extension)]
}

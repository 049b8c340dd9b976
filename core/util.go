package core

import (
	"log"
	"os"
	"path/filepath"
)

// Getwd returns the project root: the closest directory holding a go.mod, or the working
// directory when there is none (installed binaries).
// go test runs in the package directory, which would otherwise hide config/.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

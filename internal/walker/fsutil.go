package walker

import (
	"os"
	"strings"
)

func readDirNames(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

func readFileLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}

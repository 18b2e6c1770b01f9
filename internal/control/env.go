// Package control holds the data shared between the command-line commands
// and the environment they run in.
package control

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvData is the environment-derived data the commands need.
type EnvData struct {
	BaseDirPath string
}

// ResolveEnv determines the base directory: ${WORKLOG_HOME} if set,
// otherwise ~/.config/worklog.
func ResolveEnv() EnvData {
	var envData EnvData

	worklogHome := os.Getenv("WORKLOG_HOME")
	if worklogHome == "" {
		envData.BaseDirPath = filepath.Join(os.Getenv("HOME"), ".config", "worklog")
	} else {
		envData.BaseDirPath = strings.TrimRight(worklogHome, "/")
	}

	return envData
}

// ConfigPath returns the path of the config file under the base dir.
func (e EnvData) ConfigPath() string {
	return filepath.Join(e.BaseDirPath, "config.yaml")
}

// DataPath returns the directory the file-backed store lives in.
func (e EnvData) DataPath() string {
	return filepath.Join(e.BaseDirPath, "data")
}

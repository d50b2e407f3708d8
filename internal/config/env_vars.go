package config

import (
	"os"
	"path/filepath"
)

const (
	apiURLEnvVar  = "TASKMASTER_API_URL"
	appNameVar    = "TASKMASTER_APP_NAME"
	folderEnvVar  = "TASKMASTER_DATA"
	logLevelVar   = "TASKMASTER_LOG_LEVEL"
	defaultAPIURL = "http://localhost:3000/api"
)

type EnvVars struct {
	file *File
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAPIBaseURL() string {
	return e.lookup(apiURLEnvVar, e.overlay().APIBaseURL, defaultAPIURL)
}

func (e EnvVars) GetAppName() string {
	return e.lookup(appNameVar, e.overlay().AppName, "TaskMaster")
}

func (e EnvVars) GetDataFolder() string {
	return DataFolder(e.file)
}

func (e EnvVars) GetLogLevel() string {
	return e.lookup(logLevelVar, e.overlay().LogLevel, "info")
}

func (e EnvVars) overlay() File {
	if e.file == nil {
		return File{}
	}
	return *e.file
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (e EnvVars) lookup(envVar, fileValue, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// DataFolder resolves the folder holding the credential store and config file.
// The environment variable wins, then the config file, then ~/.taskmaster.
func DataFolder(file *File) string {
	if value := os.Getenv(folderEnvVar); value != "" {
		return value
	}
	if file != nil && file.DataFolder != "" {
		return file.DataFolder
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".taskmaster")
}

// ConfigFilePath returns the location of the optional config.yaml overlay.
func ConfigFilePath() string {
	return filepath.Join(DataFolder(nil), "config.yaml")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

package config

type Config interface {
	EnvConfig
	ClientConfig
}

type EnvConfig interface {
	GetAppName() string
	GetAPIBaseURL() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Client
}

// New builds the configuration from the optional config.yaml overlay in the
// data folder plus environment variables. Environment variables win over the
// file, the file wins over defaults.
func New() Config {
	file, _ := LoadFile(ConfigFilePath())
	return mainConfig{EnvVars: EnvVars{file: file}}
}

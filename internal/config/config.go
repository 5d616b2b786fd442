package config

type Config interface {
	EnvConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
}

type mainConfig struct {
	EnvVars
	SessionVars
}

func New() Config {
	return mainConfig{}
}

package config

type Config interface {
	EnvConfig
	SecurityConfig
	StoreConfig
}

type mainConfig struct {
	EnvVars
	Security
	Store
}

func New() Config {
	return mainConfig{}
}

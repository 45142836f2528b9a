package config

type APIConfig struct {
	BaseURLValue string `yaml:"base-url"`
}

func (a *APIConfig) BaseURL() string {
	return a.BaseURLValue
}

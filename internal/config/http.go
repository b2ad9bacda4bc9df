package config

type HttpConfig struct {
	StatusPort int
}

func NewHttpConfig() *HttpConfig {
	return &HttpConfig{
		StatusPort: getIntEnv("STATUS_PORT", 0),
	}
}

package config

type DatabaseConfig struct {
	Driver string
	Url    string
}

// Enabled reports whether run results should be persisted
func (c *DatabaseConfig) Enabled() bool {
	return c.Url != ""
}

func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: getEnv("DATABASE_DRIVER", "postgres"),
		Url:    getEnv("DATABASE_URL", ""),
	}
}

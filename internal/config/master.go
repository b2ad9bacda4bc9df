package config

import "os"

type AppConfig struct {
	DebugMode      bool
	SolverConfig   *SolverConfig
	ClusterConfig  *ClusterConfig
	RedisConfig    *RedisConfig
	DatabaseConfig *DatabaseConfig
	HttpConfig     *HttpConfig
	JwtConfig      *JwtConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		SolverConfig:   NewSolverConfig(),
		ClusterConfig:  NewClusterConfig(),
		RedisConfig:    NewRedisConfig(),
		DatabaseConfig: NewDatabaseConfig(),
		HttpConfig:     NewHttpConfig(),
		JwtConfig:      NewJwtConfig(),
	}
}

package config

import "time"

type ClusterConfig struct {
	ListenAddr          string
	CoordinatorAddr     string
	RegistrationTimeout time.Duration
}

func NewClusterConfig() *ClusterConfig {
	return &ClusterConfig{
		ListenAddr:          getEnv("CLUSTER_LISTEN_ADDR", ":9000"),
		CoordinatorAddr:     getEnv("CLUSTER_COORDINATOR_ADDR", "localhost:9000"),
		RegistrationTimeout: getSecondsEnv("CLUSTER_REGISTRATION_TIMEOUT_SEC", 30*time.Second),
	}
}

package config

import "sync"

var (
	serverOnce   sync.Once
	serverConfig *ServerConfig
)

type ServerConfig struct {
	Addr              string
	WorkerConcurrency int
	Development       bool
}

func GetServerConfig() *ServerConfig {
	serverOnce.Do(func() {
		loadEnv()
		serverConfig = &ServerConfig{
			Addr:              getenv("SERVER_ADDR", ":8080"),
			WorkerConcurrency: getenvInt("WORKER_CONCURRENCY", 10),
			Development:       getenvBool("DEVELOPMENT", false),
		}
	})
	return serverConfig
}

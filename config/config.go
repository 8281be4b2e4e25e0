package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort      int
	DataDir      string
	BoltPath     string
	OllamaURL    string
	OllamaModel  string
	NoiseFloor   int
	FramingsPath string
}

func Load() (*Config, error) {
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, err
	}

	noiseFloor, err := strconv.Atoi(getEnv("NOISE_FLOOR", "50"))
	if err != nil {
		return nil, err
	}

	return &Config{
		AppPort:      appPort,
		DataDir:      getEnv("DATA_DIR", "./data/uploads"),
		BoltPath:     getEnv("BOLT_PATH", "./data/fabula.db"),
		OllamaURL:    getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:  getEnv("OLLAMA_MODEL", "llama3"),
		NoiseFloor:   noiseFloor,
		FramingsPath: os.Getenv("FRAMINGS_PATH"),
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

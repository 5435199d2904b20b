package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// LLM provider
	LLMProvider string
	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string

	// Gemini AI
	GeminiAPIKey string
	GeminiModel  string

	// Agent
	AgentMaxIterations int
	DebugDumpDir       string
	SaveToolEnabled    bool
	SaveToolPath       string

	// Rate limiting
	ResearchPerMin int

	// Chat client
	AgentURL string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8000"),
		Env:                getEnvOrDefault("ENV", "development"),
		LLMProvider:        getEnvOrDefault("LLM_PROVIDER", "groq"),
		GroqAPIKey:         getEnvOrDefault("GROQ_API_KEY", ""),
		GroqModel:          getEnvOrDefault("GROQ_MODEL", "llama-3.1-8b-instant"),
		GroqBaseURL:        getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GeminiAPIKey:       getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		AgentMaxIterations: getEnvAsIntOrDefault("AGENT_MAX_ITERATIONS", 5),
		DebugDumpDir:       getEnvOrDefault("DEBUG_DUMP_DIR", "."),
		SaveToolEnabled:    getEnvAsBoolOrDefault("SAVE_TOOL_ENABLED", false),
		SaveToolPath:       getEnvOrDefault("SAVE_TOOL_PATH", "research_output.txt"),
		ResearchPerMin:     getEnvAsIntOrDefault("RESEARCH_RATE_LIMIT", 20),
		AgentURL:           getEnvOrDefault("AGENT_URL", "http://localhost:8000"),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

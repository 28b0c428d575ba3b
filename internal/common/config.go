package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Corpus    CorpusConfig    `toml:"corpus"`
	Index     IndexConfig     `toml:"index"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	LLM       LLMConfig       `toml:"llm"`
	Gemini    GeminiConfig    `toml:"gemini"`
	Claude    ClaudeConfig    `toml:"claude"`
	OpenAI    OpenAIConfig    `toml:"openai"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port       int    `toml:"port" validate:"min=1,max=65535"`
	Host       string `toml:"host"`
	RenderHTML bool   `toml:"render_html"` // Add answer_html (markdown rendered) to /ask responses
}

// CorpusConfig points at the UTF-8 text file the indexer reads
type CorpusConfig struct {
	Path string `toml:"path" validate:"required"`
}

// IndexConfig describes where the persisted index lives
type IndexConfig struct {
	Path     string `toml:"path" validate:"required"` // Index directory (BadgerDB)
	Schedule string `toml:"schedule"`                 // Optional cron schedule for ragbot-index rebuilds
}

type ChunkingConfig struct {
	Strategy string `toml:"strategy" validate:"oneof=window recursive"` // "window" (sliding window) or "recursive"
	Size     int    `toml:"size" validate:"min=1"`                      // Characters per chunk (default: 500)
	Overlap  int    `toml:"overlap" validate:"min=0"`                   // Characters shared with the previous chunk (default: 50)
}

type EmbeddingConfig struct {
	Provider  string `toml:"provider" validate:"oneof=gemini openai hashing"`
	Model     string `toml:"model"`                       // Empty uses the provider default
	Dimension int    `toml:"dimension" validate:"min=1"`  // Output vector length
	BatchSize int    `toml:"batch_size" validate:"min=1"` // Texts per embedding request
	RateLimit string `toml:"rate_limit"`                  // Minimum interval between embedding requests, e.g. "200ms" (empty = unlimited)
}

type RetrievalConfig struct {
	TopK     int     `toml:"top_k" validate:"min=1"`            // Chunks returned per query (default: 4)
	MinScore float32 `toml:"min_score" validate:"min=-1,max=1"` // Drop chunks below this cosine similarity (0 = keep all)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderOpenAI uses the OpenAI chat completions API
	LLMProviderOpenAI LLMProvider = "openai"
)

// LLMConfig holds provider selection and call hardening settings
type LLMConfig struct {
	Provider       LLMProvider `toml:"provider" validate:"oneof=gemini claude openai"` // Default: "gemini"
	Timeout        string      `toml:"timeout"`                                        // Per-call timeout (default: "60s")
	MaxRetries     int         `toml:"max_retries" validate:"min=0,max=10"`            // Retries for transient failures (default: 2)
	InitialBackoff string      `toml:"initial_backoff"`                                // Default: "1s"
	MaxBackoff     string      `toml:"max_backoff"`                                    // Default: "10s"
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Chat model (default: "gemini-2.5-pro")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`      // Default: "claude-sonnet-4-20250514"
	MaxTokens   int     `toml:"max_tokens"` // Default: 2048
	Temperature float32 `toml:"temperature"`
}

// OpenAIConfig contains OpenAI (or compatible) API configuration
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"` // Optional, for OpenAI-compatible endpoints
	Model       string  `toml:"model"`    // Default: "gpt-4o-mini"
	Temperature float32 `toml:"temperature"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 5000,
			Host: "127.0.0.1",
		},
		Corpus: CorpusConfig{
			Path: "data/corpus.txt",
		},
		Index: IndexConfig{
			Path: "vectorstore",
		},
		Chunking: ChunkingConfig{
			Strategy: "window",
			Size:     500,
			Overlap:  50,
		},
		Embedding: EmbeddingConfig{
			Provider:  "gemini",
			Model:     "", // Provider default: gemini-embedding-001 / text-embedding-3-small / hashing-bow-v1
			Dimension: 768,
			BatchSize: 100, // Gemini batch embedding limit
		},
		Retrieval: RetrievalConfig{
			TopK: 4,
		},
		LLM: LLMConfig{
			Provider:       LLMProviderGemini,
			Timeout:        "60s",
			MaxRetries:     2,
			InitialBackoff: "1s",
			MaxBackoff:     "10s",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-pro",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
	}
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// Variables already set in the environment are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Server configuration
	if port := os.Getenv("RAGBOT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RAGBOT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if render := os.Getenv("RAGBOT_SERVER_RENDER_HTML"); render != "" {
		if b, err := strconv.ParseBool(render); err == nil {
			config.Server.RenderHTML = b
		}
	}

	// Corpus and index
	if path := os.Getenv("RAGBOT_CORPUS_PATH"); path != "" {
		config.Corpus.Path = path
	}
	if path := os.Getenv("RAGBOT_INDEX_PATH"); path != "" {
		config.Index.Path = path
	}
	if schedule := os.Getenv("RAGBOT_INDEX_SCHEDULE"); schedule != "" {
		config.Index.Schedule = schedule
	}

	// Chunking
	if strategy := os.Getenv("RAGBOT_CHUNK_STRATEGY"); strategy != "" {
		config.Chunking.Strategy = strategy
	}
	if size := os.Getenv("RAGBOT_CHUNK_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil {
			config.Chunking.Size = s
		}
	}
	if overlap := os.Getenv("RAGBOT_CHUNK_OVERLAP"); overlap != "" {
		if o, err := strconv.Atoi(overlap); err == nil {
			config.Chunking.Overlap = o
		}
	}

	// Embedding
	if provider := os.Getenv("RAGBOT_EMBEDDING_PROVIDER"); provider != "" {
		config.Embedding.Provider = provider
	}
	if model := os.Getenv("RAGBOT_EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if dim := os.Getenv("RAGBOT_EMBEDDING_DIMENSION"); dim != "" {
		if d, err := strconv.Atoi(dim); err == nil {
			config.Embedding.Dimension = d
		}
	}
	if rateLimit := os.Getenv("RAGBOT_EMBEDDING_RATE_LIMIT"); rateLimit != "" {
		config.Embedding.RateLimit = rateLimit
	}

	// Retrieval
	if topK := os.Getenv("RAGBOT_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil {
			config.Retrieval.TopK = k
		}
	}
	if minScore := os.Getenv("RAGBOT_MIN_SCORE"); minScore != "" {
		if s, err := strconv.ParseFloat(minScore, 32); err == nil {
			config.Retrieval.MinScore = float32(s)
		}
	}

	// LLM
	if provider := os.Getenv("RAGBOT_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(strings.ToLower(provider))
	}
	if timeout := os.Getenv("RAGBOT_LLM_TIMEOUT"); timeout != "" {
		config.LLM.Timeout = timeout
	}
	if retries := os.Getenv("RAGBOT_LLM_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.LLM.MaxRetries = r
		}
	}
	if model := os.Getenv("RAGBOT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("RAGBOT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if model := os.Getenv("RAGBOT_OPENAI_MODEL"); model != "" {
		config.OpenAI.Model = model
	}
	if baseURL := os.Getenv("RAGBOT_OPENAI_BASE_URL"); baseURL != "" {
		config.OpenAI.BaseURL = baseURL
	}

	// Logging configuration
	if level := os.Getenv("RAGBOT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("RAGBOT_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("RAGBOT_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if o = strings.TrimSpace(o); o != "" {
				outputs = append(outputs, o)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ApplyPathOverrides applies -corpus / -index flag overrides
func ApplyPathOverrides(config *Config, corpusPath, indexPath string) {
	if corpusPath != "" {
		config.Corpus.Path = corpusPath
	}
	if indexPath != "" {
		config.Index.Path = indexPath
	}
}

// Validate checks struct tags and the cross-field rules tags cannot express
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed '%s' (value: %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("invalid config: chunking.overlap (%d) must be smaller than chunking.size (%d)", c.Chunking.Overlap, c.Chunking.Size)
	}

	for name, value := range map[string]string{
		"llm.timeout":          c.LLM.Timeout,
		"llm.initial_backoff":  c.LLM.InitialBackoff,
		"llm.max_backoff":      c.LLM.MaxBackoff,
		"embedding.rate_limit": c.Embedding.RateLimit,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid config: %s '%s': %w", name, value, err)
		}
	}

	if c.Index.Schedule != "" {
		if err := ValidateSchedule(c.Index.Schedule); err != nil {
			return err
		}
	}

	return nil
}

// ValidateSchedule validates a standard 5-field cron expression
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// Duration parses a duration string, falling back when empty or invalid
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// apiKeyEnvVars lists the environment variables checked per key, in priority order
var apiKeyEnvVars = map[string][]string{
	"gemini": {"RAGBOT_GEMINI_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"claude": {"RAGBOT_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	"openai": {"RAGBOT_OPENAI_API_KEY", "OPENAI_API_KEY"},
}

// ResolveAPIKey resolves an API key by provider name.
// Resolution order: environment variables → config fallback → error
func ResolveAPIKey(name string, configFallback string) (string, error) {
	for _, envVarName := range apiKeyEnvVars[name] {
		if envValue := os.Getenv(envVarName); envValue != "" {
			return envValue, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key for '%s' not found in environment (%s) or config: %w",
		name, strings.Join(apiKeyEnvVars[name], ", "), ErrMissingAPIKey)
}

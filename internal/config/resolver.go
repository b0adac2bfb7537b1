package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceDotEnv  ValueSource = "dotenv"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// Built-in defaults.
const (
	DefaultDBPath   = "~/.convograph/convograph.db"
	DefaultHTTPAddr = ":8080"
	DefaultLLMModel = "gpt-4o-mini"
	DefaultLogEnv   = "development"
	DefaultEnvFile  = ".env"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// Set reports whether the value was resolved from any source.
func (v ResolvedValue) Set() bool {
	return strings.TrimSpace(v.Value) != ""
}

type ResolveOptions struct {
	ConfigPath string
	// EnvFile is a dotenv file consulted after the process environment.
	// Empty means DefaultEnvFile; a missing file is ignored.
	EnvFile   string
	CLIDBPath string
	CLIModel  string
	CLIAddr   string
	CLILogEnv string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath   ResolvedValue `json:"db_path"`
	LogEnv   ResolvedValue `json:"log_env"`
	HTTPAddr ResolvedValue `json:"http_addr"`

	LLMModel   ResolvedValue `json:"llm_model"`
	LLMBaseURL ResolvedValue `json:"llm_base_url"`
	LLMAPIKey  ResolvedValue `json:"llm_api_key"`

	Neo4jURI      ResolvedValue `json:"neo4j_uri"`
	Neo4jUser     ResolvedValue `json:"neo4j_user"`
	Neo4jPassword ResolvedValue `json:"neo4j_password"`

	// Technologies extends the topic vocabulary. Config file only.
	Technologies []string `json:"technologies,omitempty"`
}

type fileConfig struct {
	DBPath string `yaml:"db_path"`
	LogEnv string `yaml:"log_env"`
	HTTP   struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	LLM struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"llm"`
	Neo4j struct {
		URI      string `yaml:"uri"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"neo4j"`
	Extract struct {
		Technologies []string `yaml:"technologies"`
	} `yaml:"extract"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".convograph", "config.yaml")
}

// ResolveConfig layers built-in defaults < config file < dotenv file <
// process environment < CLI flags. Every value records where it came from.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		DBPath:     ResolvedValue{Value: DefaultDBPath, Source: SourceDefault, From: "built-in default"},
		LogEnv:     ResolvedValue{Value: DefaultLogEnv, Source: SourceDefault, From: "built-in default"},
		HTTPAddr:   ResolvedValue{Value: DefaultHTTPAddr, Source: SourceDefault, From: "built-in default"},
		LLMModel:   ResolvedValue{Value: DefaultLLMModel, Source: SourceDefault, From: "built-in default"},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.LogEnv, cfg.LogEnv, SourceConfig, path)
		apply(&out.HTTPAddr, cfg.HTTP.Addr, SourceConfig, path)
		apply(&out.LLMModel, cfg.LLM.Model, SourceConfig, path)
		apply(&out.LLMBaseURL, cfg.LLM.BaseURL, SourceConfig, path)
		apply(&out.LLMAPIKey, cfg.LLM.APIKey, SourceConfig, path)
		apply(&out.Neo4jURI, cfg.Neo4j.URI, SourceConfig, path)
		apply(&out.Neo4jUser, cfg.Neo4j.Username, SourceConfig, path)
		apply(&out.Neo4jPassword, cfg.Neo4j.Password, SourceConfig, path)
		for _, t := range cfg.Extract.Technologies {
			if t = strings.TrimSpace(t); t != "" {
				out.Technologies = append(out.Technologies, t)
			}
		}
	}

	envFile := strings.TrimSpace(opts.EnvFile)
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := loadDotEnv(envFile)
	if err != nil {
		return out, err
	}
	env := envLookup{file: envFile, dotenv: dotenv}

	env.apply(&out.DBPath, "CONVOGRAPH_DB")
	env.apply(&out.DBPath, "CONVOGRAPH_DB_PATH")
	env.apply(&out.LogEnv, "CONVOGRAPH_ENV")
	env.apply(&out.HTTPAddr, "CONVOGRAPH_ADDR")

	env.apply(&out.LLMModel, "CONVOGRAPH_LLM_MODEL")
	env.apply(&out.LLMBaseURL, "OPENAI_BASE_URL")
	env.apply(&out.LLMAPIKey, "OPENAI_API_KEY")
	env.apply(&out.LLMAPIKey, "CONVOGRAPH_LLM_API_KEY")

	env.apply(&out.Neo4jURI, "NEO4J_URI")
	env.apply(&out.Neo4jUser, "NEO4J_USERNAME")
	env.apply(&out.Neo4jPassword, "NEO4J_PASSWORD")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.LLMModel, opts.CLIModel, SourceCLI, "--model")
	apply(&out.HTTPAddr, opts.CLIAddr, SourceCLI, "--addr")
	apply(&out.LogEnv, opts.CLILogEnv, SourceCLI, "--log")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

// Redacted returns a copy with secrets masked, for display.
func (r ResolvedConfig) Redacted() ResolvedConfig {
	out := r
	out.LLMAPIKey.Value = mask(r.LLMAPIKey.Value)
	out.Neo4jPassword.Value = mask(r.Neo4jPassword.Value)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}

type envLookup struct {
	file   string
	dotenv map[string]string
}

// apply sets dst from the process environment, falling back to the dotenv
// file. A variable already exported wins over the file.
func (e envLookup) apply(dst *ResolvedValue, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: key}
		return
	}
	if v := strings.TrimSpace(e.dotenv[key]); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceDotEnv, From: e.file + ":" + key}
	}
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return vals, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

const (
	defaultMigrationsDir      = "./migrations"
	defaultTokenHeader        = "X-Quiz-Token"
	defaultTokenKeyTemplate   = "quiz:{quiz}:{student}"
	defaultStudentEmailHeader = "X-Student-Email"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type SheetConfig struct {
	SheetID   string `toml:"sheet_id"`
	SheetName string `toml:"sheet_name"`
	Range     string `toml:"range"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
		TokenTTLHours    int    `toml:"token_ttl_hours"`
	} `toml:"auth"`

	API struct {
		StudentEmailHeader string         `toml:"student_email_header"`
		RequiredHeaders    []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Grading struct {
		ManualTypes []string `toml:"manual_types"`
	} `toml:"grading"`

	Export struct {
		CredentialsPath string        `toml:"credentials_path"`
		Schedule        string        `toml:"schedule"`
		Sheets          []SheetConfig `toml:"sheets"`
	} `toml:"export"`

	Bot struct {
		Token    string  `toml:"token"`
		AdminIDs []int64 `toml:"admin_ids"`
	} `toml:"bot"`
}

func (c *Config) applyDefaults() {
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = defaultMigrationsDir
	}
	if c.Auth.TokenHeader == "" {
		c.Auth.TokenHeader = defaultTokenHeader
	}
	if c.Auth.TokenKeyTemplate == "" {
		c.Auth.TokenKeyTemplate = defaultTokenKeyTemplate
	}
	if c.API.StudentEmailHeader == "" {
		c.API.StudentEmailHeader = defaultStudentEmailHeader
	}
}

func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	config.applyDefaults()
	return &config, nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	logger.Debug.Printf("Loaded grading config: %+v", config.Grading)

	return config, nil
}

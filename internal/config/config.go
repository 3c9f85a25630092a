package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
)

type Config struct {
	Port            string `env:"PORT" envDefault:"8080"`
	MongoURI        string `env:"MONGO_URI"`
	MongoDB         string `env:"MONGO_DB" envDefault:"bolsas"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"listings"`
	SourcesFile     string `env:"SOURCES_FILE" envDefault:"configs/sources.yaml"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`

	// Valores zerados mantêm o que o perfil da fonte define.
	MaxItems      int     `env:"MAX_ITEMS" envDefault:"0"`
	MinAmount     float64 `env:"MIN_AMOUNT" envDefault:"0"`
	KeywordWindow int     `env:"DATE_KEYWORD_WINDOW" envDefault:"0"`

	// Today fixa a data de referência (AAAA-MM-DD) para execuções reprodutíveis.
	Today string `env:"TODAY"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	UserAgent      string        `env:"USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36"`
	ChromePath     string        `env:"CHROME_PATH"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// LoadConfig lê a configuração das variáveis de ambiente.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return cfg, nil
}

// ReferenceDate retorna a data usada como "hoje" pelo filtro: TODAY quando
// definido, senão a data de now.
func (c *Config) ReferenceDate(now time.Time) (extractor.Date, error) {
	if c.Today == "" {
		return extractor.DateOf(now), nil
	}
	d, err := extractor.ParseDate(c.Today)
	if err != nil {
		return extractor.Date{}, fmt.Errorf("TODAY: %w", err)
	}
	return d, nil
}

// Apply sobrepõe ao perfil os limites definidos no ambiente.
func (c *Config) Apply(p SourceProfile) SourceProfile {
	if c.MaxItems > 0 {
		p.MaxItems = c.MaxItems
	}
	if c.MinAmount > 0 {
		p.MinAmount = c.MinAmount
	}
	if c.KeywordWindow > 0 {
		p.KeywordWindow = c.KeywordWindow
	}
	return p
}

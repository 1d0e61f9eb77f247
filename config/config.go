package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del daemon de settlement.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig controla el comportamiento del motor de settlement.
type EngineConfig struct {
	SystemAccount     string `yaml:"system_account"`      // cuenta que cobra la comisión del sistema
	AbandonGraceHours int    `yaml:"abandon_grace_hours"` // espera tras el deadline para abandonar
}

// OracleConfig apunta al servicio externo de feeds de porcentaje.
type OracleConfig struct {
	BaseURL string `yaml:"base_url"` // vacío = feed en memoria (demo/tests)
}

// StorageConfig controla dónde se persisten los snapshots.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del .env sobreescriben los del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// AbandonGrace devuelve la espera de abandono como time.Duration.
func (c *Config) AbandonGrace() time.Duration {
	return time.Duration(c.Engine.AbandonGraceHours) * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si
// están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SYSTEM_ACCOUNT"); v != "" {
		cfg.Engine.SystemAccount = v
	}
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.SystemAccount == "" {
		cfg.Engine.SystemAccount = "system"
	}
	if cfg.Engine.AbandonGraceHours <= 0 {
		cfg.Engine.AbandonGraceHours = 7 * 24
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "heavymath.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

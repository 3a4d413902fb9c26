// Package config exposes strongly typed application configuration loaded from
// YAML, a .env file and COVIDNL_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/covidnl/reconcile"
)

// App captures process-wide settings.
type App struct {
	Name         string `yaml:"name"`
	LogLevel     string `yaml:"log_level" env:"COVIDNL_LOG_LEVEL"`
	LogFormat    string `yaml:"log_format" env:"COVIDNL_LOG_FORMAT"`
	OTelEndpoint string `yaml:"otel_endpoint" env:"COVIDNL_OTEL_ENDPOINT"`
}

// Sources lists where the raw datasets are downloaded from. An empty URL
// means the file is expected to be present in the data directory already.
type Sources struct {
	CasesURL           string        `yaml:"cases_url" env:"COVIDNL_CASES_URL"`
	CasesArchiveURL    string        `yaml:"cases_archive_url" env:"COVIDNL_CASES_ARCHIVE_URL"`
	HospitalURL        string        `yaml:"hospital_url" env:"COVIDNL_HOSPITAL_URL"`
	HospitalArchiveURL string        `yaml:"hospital_archive_url" env:"COVIDNL_HOSPITAL_ARCHIVE_URL"`
	PopulationURL      string        `yaml:"population_url" env:"COVIDNL_POPULATION_URL"`
	MunicipalitiesURL  string        `yaml:"municipalities_url" env:"COVIDNL_MUNICIPALITIES_URL"`
	Timeout            time.Duration `yaml:"timeout" env:"COVIDNL_DOWNLOAD_TIMEOUT"`
	Concurrency        int           `yaml:"concurrency"`
}

// Paths names every file the pipeline reads or writes. File names are
// relative to DataDir unless absolute.
type Paths struct {
	DataDir         string `yaml:"data_dir" env:"COVIDNL_DATA_DIR"`
	Cases           string `yaml:"cases"`
	CasesArchive    string `yaml:"cases_archive"`
	Hospital        string `yaml:"hospital"`
	HospitalArchive string `yaml:"hospital_archive"`
	Population      string `yaml:"population"`
	Municipalities  string `yaml:"municipalities"`
	Cleaned         string `yaml:"cleaned"`
	GeoDir          string `yaml:"geo_dir"`
	Workbook        string `yaml:"workbook"`
}

// Resolve joins name onto DataDir unless name is absolute.
func (p Paths) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// Geo configures how municipality boundaries are matched to the data.
type Geo struct {
	CodeProperty string `yaml:"code_property"`
	NameProperty string `yaml:"name_property"`
}

// Server configures the dashboard listener.
type Server struct {
	Addr string `yaml:"addr" env:"COVIDNL_ADDR"`
}

// Reconcile overrides the built-in municipality reorganisations. Leaving both
// lists empty keeps the defaults.
type Reconcile struct {
	Fusions []reconcile.Fusion `yaml:"fusions"`
	Splits  []reconcile.Split  `yaml:"splits"`
}

// Config collects every configuration leaf.
type Config struct {
	App       App       `yaml:"app"`
	Sources   Sources   `yaml:"sources"`
	Paths     Paths     `yaml:"paths"`
	Geo       Geo       `yaml:"geo"`
	Server    Server    `yaml:"server"`
	Reconcile Reconcile `yaml:"reconcile"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		App: App{
			Name:      "covidnl",
			LogLevel:  "info",
			LogFormat: "console",
		},
		Sources: Sources{
			CasesURL:           "https://data.rivm.nl/covid-19/COVID-19_aantallen_gemeente_per_dag.csv",
			CasesArchiveURL:    "https://data.rivm.nl/covid-19/COVID-19_aantallen_gemeente_per_dag_tm_03102021.csv",
			HospitalURL:        "https://data.rivm.nl/covid-19/COVID-19_ziekenhuisopnames.csv",
			HospitalArchiveURL: "https://data.rivm.nl/data/covid-19/COVID-19_ziekenhuisopnames_tm_03102021.csv",
			Timeout:            5 * time.Minute,
			Concurrency:        4,
		},
		Paths: Paths{
			DataDir:         "data",
			Cases:           "cases_2.csv",
			CasesArchive:    "cases_1.csv",
			Hospital:        "hosp_2.csv",
			HospitalArchive: "hosp_1.csv",
			Population:      "population_data.csv",
			Municipalities:  "municipalities_2023.geojson",
			Cleaned:         "data_cleaned.csv",
			GeoDir:          "geodata",
			Workbook:        "covid_summary.xlsx",
		},
		Geo: Geo{
			CodeProperty: "statcode",
			NameProperty: "statnaam",
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Load reads a YAML file over the defaults, then applies the optional .env
// file and environment overrides. An empty path skips the YAML step.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists a Config as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must be set")
	}
	if c.Geo.CodeProperty == "" {
		return fmt.Errorf("geo.code_property must be set")
	}
	if c.Sources.Concurrency < 1 {
		c.Sources.Concurrency = 1
	}
	if _, err := c.Registry(); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	return nil
}

// Registry builds the municipality reconciliation registry.
func (c *Config) Registry() (*reconcile.Registry, error) {
	if len(c.Reconcile.Fusions) == 0 && len(c.Reconcile.Splits) == 0 {
		return reconcile.Default(), nil
	}
	return reconcile.NewRegistry(c.Reconcile.Fusions, c.Reconcile.Splits)
}

package main

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/wiless/stationbeam"
	"github.com/wiless/stationbeam/beampattern"
	"github.com/wiless/stationbeam/deployment"
	"github.com/wiless/stationbeam/element"
)

// AppConfig holds the parameters of a beamgen run.
type AppConfig struct {
	TableDir     string                 `mapstructure:"table_dir"`
	TablePattern string                 `mapstructure:"table_pattern"`
	OutDir       string                 `mapstructure:"out_dir"`
	Store        string                 `mapstructure:"store"` // "dir" or "sqlite"
	DBFile       string                 `mapstructure:"db_file"`
	Workers      int                    `mapstructure:"workers"`
	Freqs        []int                  `mapstructure:"freqs"`
	MetricsFile  string                 `mapstructure:"metrics_file"`
	LogLevel     string                 `mapstructure:"log_level"`
	Lattice      deployment.RingLattice `mapstructure:"lattice"`
}

func setDefaults(v *viper.Viper) {
	lat := deployment.NewRingLattice()
	v.SetDefault("table_dir", ".")
	v.SetDefault("table_pattern", element.DefaultFilePattern)
	v.SetDefault("out_dir", ".")
	v.SetDefault("store", "dir")
	v.SetDefault("db_file", "beampatterns.db")
	v.SetDefault("workers", 0)
	v.SetDefault("freqs", []int{})
	v.SetDefault("metrics_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("lattice.rings", lat.Rings)
	v.SetDefault("lattice.per_ring", lat.PerRing)
	v.SetDefault("lattice.initial_radius", lat.InitialRadius)
	v.SetDefault("lattice.radius_factor", lat.RadiusFactor)
}

// ReadAppConfig reads beamgen.{yaml,json,toml} from indir, if present, and
// BEAMGEN_* environment overrides on top of the defaults.
func ReadAppConfig(indir string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("beamgen")
	v.AddConfigPath(indir)
	v.SetEnvPrefix("BEAMGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %v: %w", err, stationbeam.ErrConfiguration)
		}
		log.WithField("dir", indir).Debug("no beamgen config file, using defaults")
	} else {
		log.WithField("file", v.ConfigFileUsed()).Info("config loaded")
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %v: %w", err, stationbeam.ErrConfiguration)
	}
	return &cfg, nil
}

// Validate checks the run parameters before any table is read.
func (c *AppConfig) Validate() error {
	if len(c.Freqs) == 0 {
		return fmt.Errorf("no frequencies given: %w", stationbeam.ErrConfiguration)
	}
	for _, f := range c.Freqs {
		if f <= 0 {
			return fmt.Errorf("frequency %d MHz: %w", f, stationbeam.ErrConfiguration)
		}
	}
	if c.Store != "dir" && c.Store != "sqlite" {
		return fmt.Errorf("store %q, want dir or sqlite: %w", c.Store, stationbeam.ErrConfiguration)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %v: %w", err, stationbeam.ErrConfiguration)
	}
	return c.Lattice.Validate()
}

// OpenStore returns the grid store selected by the config and a function
// releasing it.
func (c *AppConfig) OpenStore() (beampattern.Store, func() error, error) {
	if c.Store == "sqlite" {
		s, err := beampattern.OpenSQLStore(joinOut(c.OutDir, c.DBFile))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return beampattern.NewDirStore(c.OutDir), func() error { return nil }, nil
}

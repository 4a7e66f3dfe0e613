package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Logger    LoggerConfig    `yaml:"logger"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

// RedisConfig Redis configuration. An empty addr disables the fleet store;
// candidates must then arrive with each schedule request.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig scheduling tunables. Alpha/Beta weight current vs.
// historical utilization in the blockchain policy's dynamic weight.
type SchedulerConfig struct {
	Alpha         float64        `yaml:"alpha"`
	Beta          float64        `yaml:"beta"`
	HistoryWindow int            `yaml:"history_window"`
	BlockSize     int            `yaml:"block_size"`
	VMCapacity    CapacityConfig `yaml:"vm_capacity"`
}

// CapacityConfig default per-VM capacity for fleet registration.
type CapacityConfig struct {
	CPU float64 `yaml:"cpu"`
	Mem float64 `yaml:"mem"`
	IO  float64 `yaml:"io"`
	BW  float64 `yaml:"bw"`
}

// DefaultSchedulerConfig returns the tunables used when the config file
// omits or zeroes them.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Alpha:         0.7,
		Beta:          0.3,
		HistoryWindow: 10,
		BlockSize:     5,
		VMCapacity:    CapacityConfig{CPU: 500, Mem: 250, IO: 300, BW: 20},
	}
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	validateAndApplyDefaults(&cfg)
	GlobalConfig = &cfg
	return nil
}

// validateAndApplyDefaults replaces invalid or missing scheduler tunables
// with defaults so a sparse config file still yields a working scheduler.
func validateAndApplyDefaults(cfg *Config) {
	defaults := DefaultSchedulerConfig()
	s := &cfg.Scheduler

	if s.Alpha <= 0 {
		s.Alpha = defaults.Alpha
	}
	if s.Beta <= 0 {
		s.Beta = defaults.Beta
	}
	if s.HistoryWindow <= 0 {
		s.HistoryWindow = defaults.HistoryWindow
	}
	if s.BlockSize <= 0 {
		s.BlockSize = defaults.BlockSize
	}
	if s.VMCapacity.CPU <= 0 || s.VMCapacity.Mem <= 0 || s.VMCapacity.IO <= 0 || s.VMCapacity.BW <= 0 {
		s.VMCapacity = defaults.VMCapacity
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
}

package config

import "runtime"

// 默认值常量
const (
	defaultAppEnv        = "dev"
	defaultAppLogLevel   = "info"
	defaultAppHTTPAddr   = ":9992"
	defaultDataDir       = "data/ohlcv"
	defaultCondaBin      = "conda"
	defaultCondaEnv      = "tflow"
	defaultPythonBin     = "python"
	defaultRunnerTimeout = 300
	defaultOutputDir     = "data/multi_asset_results"
	defaultStoragePath   = "data/multi_asset_results/history.db"
	defaultDataExtension = ".csv"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Data.applyDefaults()
	c.Runner.applyDefaults()
	c.Pool.applyDefaults()
	c.Output.applyDefaults()
	c.Storage.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if a.Env == "" {
		a.Env = defaultAppEnv
	}
	if a.LogLevel == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if a.HTTPAddr == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
}

func (d *DataConfig) applyDefaults() {
	if d.Dir == "" {
		d.Dir = defaultDataDir
	}
	if len(d.Extensions) == 0 {
		d.Extensions = []string{defaultDataExtension}
	}
}

func (r *RunnerConfig) applyDefaults() {
	if r.CondaBin == "" {
		r.CondaBin = defaultCondaBin
	}
	if r.CondaEnv == "" {
		r.CondaEnv = defaultCondaEnv
	}
	if r.PythonBin == "" {
		r.PythonBin = defaultPythonBin
	}
	if r.TimeoutSeconds <= 0 {
		r.TimeoutSeconds = defaultRunnerTimeout
	}
}

func (p *PoolConfig) applyDefaults() {
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
}

func (o *OutputConfig) applyDefaults() {
	if o.Dir == "" {
		o.Dir = defaultOutputDir
	}
}

func (s *StorageConfig) applyDefaults() {
	if s.Path == "" {
		s.Path = defaultStoragePath
	}
}

package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Data.validate(); err != nil {
		return err
	}
	if err := c.Runner.validate(); err != nil {
		return err
	}
	if err := c.Pool.validate(); err != nil {
		return err
	}
	return nil
}

func (d *DataConfig) validate() error {
	for _, ext := range d.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("data.extensions entries must start with '.' (got %q)", ext)
		}
	}
	return nil
}

func (r *RunnerConfig) validate() error {
	if r.TimeoutSeconds <= 0 {
		return fmt.Errorf("runner.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(r.PythonBin) == "" {
		return fmt.Errorf("runner.python_bin cannot be empty")
	}
	return nil
}

func (p *PoolConfig) validate() error {
	if p.Workers <= 0 {
		return fmt.Errorf("pool.workers must be > 0")
	}
	return nil
}

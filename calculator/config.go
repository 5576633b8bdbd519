package calculator

import (
	"fmt"

	"gopkg.in/ini.v1"
)

type Config struct {
	Epsilon0 float64
	CellsX   int
	CellsY   int

	Workers  int
	MinBatch int

	Addr string
}

func defaultConfig() Config {
	return Config{
		Epsilon0: VacuumPermittivity,
		CellsX:   DefaultCells,
		CellsY:   DefaultCells,
		Workers:  4,
		MinBatch: 256,
		Addr:     ":9000",
	}
}

// LoadConfig 读取 ini 配置文件，缺省的键使用默认值
func LoadConfig(path string) (Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return loadCfg(file)
}

func ParseConfig(data []byte) (Config, error) {
	file, err := ini.Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return loadCfg(file)
}

func loadCfg(file *ini.File) (Config, error) {
	d := defaultConfig()
	cfg := Config{
		Epsilon0: file.Section("field").Key("epsilon0").MustFloat64(d.Epsilon0),
		CellsX:   file.Section("field").Key("cells_x").MustInt(d.CellsX),
		CellsY:   file.Section("field").Key("cells_y").MustInt(d.CellsY),
		Workers:  file.Section("executor").Key("workers").MustInt(d.Workers),
		MinBatch: file.Section("executor").Key("min_batch").MustInt(d.MinBatch),
		Addr:     file.Section("server").Key("addr").MustString(d.Addr),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := NewEnv(c.Epsilon0); err != nil {
		return err
	}
	if c.CellsX < 1 {
		return configErr("cells_x", c.CellsX, ErrInvalidCells)
	}
	if c.CellsY < 1 {
		return configErr("cells_y", c.CellsY, ErrInvalidCells)
	}
	if c.Workers < 1 {
		return configErr("workers", c.Workers, ErrInvalidWorkers)
	}
	return nil
}

// Env 按配置创建 ε₀ 环境，进程内只应调用一次
func (c Config) Env() (*Env, error) {
	return NewEnv(c.Epsilon0)
}

func (c Config) Executor() *Executor {
	return NewExecutor(c.Workers, c.MinBatch)
}

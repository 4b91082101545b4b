package config

// Config 是 assetmatrix 的主配置载体。
type Config struct {
	App     AppConfig     `toml:"app"`
	Data    DataConfig    `toml:"data"`
	Runner  RunnerConfig  `toml:"runner"`
	Pool    PoolConfig    `toml:"pool"`
	Output  OutputConfig  `toml:"output"`
	Storage StorageConfig `toml:"storage"`
	Variant VariantConfig `toml:"variant"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
}

// DataConfig 指定行情数据目录与可识别的文件后缀。
type DataConfig struct {
	Dir        string   `toml:"dir"`
	Extensions []string `toml:"extensions"`
}

// RunnerConfig 描述外部回测进程的启动方式。
type RunnerConfig struct {
	CondaBin       string `toml:"conda_bin"`
	CondaEnv       string `toml:"conda_env"`
	PythonBin      string `toml:"python_bin"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type PoolConfig struct {
	Workers int `toml:"workers"`
}

// OutputConfig 控制结果文档的落盘位置；NoCapture 为 true 时不保留 stdout/stderr 全文。
type OutputConfig struct {
	Dir       string `toml:"dir"`
	NoCapture bool   `toml:"no_capture"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

// VariantConfig 指向可选的改写规则文件；为空时使用内置规则。
type VariantConfig struct {
	RulesPath string `toml:"rules_path"`
}

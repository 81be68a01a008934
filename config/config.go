package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aaronwong1989/goparcel/comm/logging"
	"github.com/aaronwong1989/goparcel/parcel"
)

const DefaultPath = "goparcel.yaml"

type Config struct {
	// 服务端参数
	Port               int           `yaml:"port"`
	Multicore          bool          `yaml:"multicore"`
	MaxCons            int           `yaml:"max-cons"`
	MaxPoolSize        int           `yaml:"max-pool-size"`
	ReceiveWindowSize  int           `yaml:"receive-window-size"`
	ActiveTestDuration time.Duration `yaml:"active-test-duration"`
	MaxPacketLength    uint32        `yaml:"max-packet-length"`

	// 序号生成
	DataCenterId int32 `yaml:"data-center-id"`
	WorkerId     int32 `yaml:"worker-id"`

	// 编解码
	StringEncoding string `yaml:"string-encoding"` // utf8 | utf16
	SchemaGuard    bool   `yaml:"schema-guard"`

	// 持久化，为空时只记录日志
	StorePath string `yaml:"store-path"`
	StoreSync bool   `yaml:"store-sync"`

	Logging Logging `yaml:"logging"`
}

type Logging struct {
	Level      int8   `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
}

// Default 未配置项的取值
func Default() *Config {
	return &Config{
		Port:               9200,
		Multicore:          true,
		MaxCons:            64,
		MaxPoolSize:        256,
		ReceiveWindowSize:  128,
		ActiveTestDuration: 30 * time.Second,
		MaxPacketLength:    1 << 20,
		StringEncoding:     "utf8",
		Logging:            Logging{Level: int8(logging.InfoLevel)},
	}
}

// Path 配置文件路径，优先取环境变量 GOPARCEL_CONF_PATH
func Path() string {
	path := os.Getenv("GOPARCEL_CONF_PATH")
	if len(path) == 0 {
		path = DefaultPath
	}
	return path
}

// Load 读取 yaml 配置，文件中没有出现的键保留默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	conf := Default()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65534 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.MaxCons <= 0 || c.MaxPoolSize <= 0 || c.ReceiveWindowSize <= 0 {
		return fmt.Errorf("config: max-cons, max-pool-size and receive-window-size must be positive")
	}
	if c.MaxPacketLength < 12 {
		return fmt.Errorf("config: max-packet-length %d too small", c.MaxPacketLength)
	}
	// 对应 CycleSequence 的 2 位数据中心与 3 位机器号
	if c.DataCenterId < 0 || c.DataCenterId > 3 || c.WorkerId < 0 || c.WorkerId > 7 {
		return fmt.Errorf("config: data-center-id %d or worker-id %d out of range", c.DataCenterId, c.WorkerId)
	}
	if _, err := c.Encoding(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Encoding 解析 string-encoding
func (c *Config) Encoding() (parcel.StringEncoding, error) {
	return parcel.ParseStringEncoding(c.StringEncoding)
}

// LoggingOptions 转换为 logging.Setup 的参数
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      logging.Level(c.Logging.Level),
		File:       c.Logging.File,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
		Compress:   c.Logging.Compress,
	}
}

func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return string(out)
}

package bootstrap

import (
	"os"
	"sync"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"storefront/internal/pkg/logger"
)

// Config 是整个服务的配置树，从 yaml 文件加载，环境变量可覆盖关键项。
type Config struct {
	App struct {
		// ShippingFeeCents 是结算时使用的统一运费（分）。
		ShippingFeeCents int64 `yaml:"shippingFeeCents"`
		// CartItemCeiling 是单个购物车条目允许的最大数量。
		CartItemCeiling int `yaml:"cartItemCeiling"`
		// CheckoutRetry 控制订单落库事务的重试次数。
		CheckoutRetry int `yaml:"checkoutRetry"`
	} `yaml:"app"`

	Infra struct {
		MySQL struct {
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Addr     string `yaml:"addr"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers         []string `yaml:"brokers"`
			IndexTopic      string   `yaml:"indexTopic"`
			OrderEventTopic string   `yaml:"orderEventTopic"`
		} `yaml:"kafka"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Nacos struct {
			ServerAddrs string `yaml:"serverAddrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`
}

var (
	currentConfig Config
	loadOnce      sync.Once
)

// Init 加载配置文件，进程启动时调用一次。
// 配置路径从 CONFIG_PATH 读取，缺省为 ./config.yaml；文件不存在时退回默认值，
// 方便本地直接启动。
func Init() {
	loadOnce.Do(func() {
		applyDefaults(&currentConfig)

		path := getEnv("CONFIG_PATH", "config.yaml")
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Ctx(nil).Warn().Err(err).Str("path", path).Msg("config file not loaded, using defaults")
			applyEnvOverrides(&currentConfig)
			return
		}
		if err := yaml.Unmarshal(data, &currentConfig); err != nil {
			logger.Ctx(nil).Fatal().Err(err).Str("path", path).Msg("invalid config file")
		}
		applyEnvOverrides(&currentConfig)
	})
}

// GetCurrentConfig 返回已加载的配置。必须先调用 Init。
func GetCurrentConfig() *Config {
	return &currentConfig
}

// MySQLDSN 用 go-sql-driver 的 Config 拼接 DSN，避免手写字符串出错。
func (c *Config) MySQLDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.Infra.MySQL.User
	mc.Passwd = c.Infra.MySQL.Password
	mc.Net = "tcp"
	mc.Addr = c.Infra.MySQL.Addr
	mc.DBName = c.Infra.MySQL.Database
	mc.ParseTime = true
	return mc.FormatDSN()
}

func applyDefaults(c *Config) {
	c.App.ShippingFeeCents = 1500
	c.App.CartItemCeiling = 99
	c.App.CheckoutRetry = 1
	c.Infra.MySQL.User = "root"
	c.Infra.MySQL.Addr = "localhost:3306"
	c.Infra.MySQL.Database = "storefront"
	c.Infra.Redis.Addr = "localhost:6379"
	c.Infra.Kafka.Brokers = []string{"localhost:9092"}
	c.Infra.Kafka.IndexTopic = "catalog-index-events"
	c.Infra.Kafka.OrderEventTopic = "order-lifecycle-events"
	c.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	c.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	c.Infra.Nacos.ServerAddrs = "localhost:8848"
	c.Infra.Nacos.Group = "DEFAULT_GROUP"
}

func applyEnvOverrides(c *Config) {
	c.Infra.MySQL.Addr = getEnv("MYSQL_ADDR", c.Infra.MySQL.Addr)
	c.Infra.MySQL.User = getEnv("MYSQL_USER", c.Infra.MySQL.User)
	c.Infra.MySQL.Password = getEnv("MYSQL_PASSWORD", c.Infra.MySQL.Password)
	c.Infra.Redis.Addr = getEnv("REDIS_ADDR", c.Infra.Redis.Addr)
	c.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", c.Infra.Nacos.ServerAddrs)
	c.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", c.Infra.Nacos.Namespace)
	c.Infra.Nacos.Group = getEnv("NACOS_GROUP", c.Infra.Nacos.Group)
}

// getEnv 从环境变量中读取配置，缺省时返回 fallback。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

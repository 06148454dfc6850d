package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// BotConfig 定义 Telegram 机器人配置
type BotConfig struct {
	Token         string // Bot API 令牌（必填）
	WebhookSecret string // Webhook 密钥，校验 X-Telegram-Bot-Api-Secret-Token（必填）
	WebhookPath   string // Webhook 路径，默认 "/endpoint"
	PublicURL     string // 对外可达的基础 URL，仅注册 Webhook 时需要
	OwnerUID      int64  // 永久所有者的用户 ID（必填）
	StartMessage  string // 访客 /start 欢迎语
	AdminStartMsg string // 管理员 /start 欢迎语
}

// FraudConfig 定义欺诈名单检查配置
type FraudConfig struct {
	ListURL string        // 欺诈名单地址，每次检查实时拉取
	Timeout time.Duration // 拉取超时，默认 10s
}

// RelayConfig 定义消息转发相关配置
type RelayConfig struct {
	CorrelationTTL time.Duration // 路由映射的保留时间，0 表示不过期
	UpdateTimeout  time.Duration // 单个 update 异步处理的超时时间
}

// RedisConfig 定义 Redis 存储配置
type RedisConfig struct {
	Address  string // Redis 服务地址，格式 "host:port"，默认 "localhost:6379"
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 彩色输出与详细堆栈
	File        string // 日志文件路径，留空只输出到控制台
}

// Config 是系统核心配置的根结构体
type Config struct {
	Server ServerConfig
	Bot    BotConfig
	Fraud  FraudConfig
	Relay  RelayConfig
	Redis  RedisConfig
	Log    LogConfig
}

// Load 从环境变量和 .env 文件加载系统配置。
//
// 加载优先级（从高到低）：系统环境变量 > .env 文件 > 默认值。
// 环境变量前缀 RELAYBOT_，例如 RELAYBOT_BOT_TOKEN、RELAYBOT_REDIS_ADDRESS。
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetEnvPrefix("relaybot")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("bot.token", "")
	viper.SetDefault("bot.webhook_secret", "")
	viper.SetDefault("bot.webhook_path", "/endpoint")
	viper.SetDefault("bot.public_url", "")
	viper.SetDefault("bot.owner_uid", 0)
	viper.SetDefault("bot.start_message", "你好，这里是私聊机器人，直接发送消息即可转达。")
	viper.SetDefault("bot.admin_start_message", "你好，管理员。回复转发的消息即可回复对应访客。")
	viper.SetDefault("fraud.list_url", "https://raw.githubusercontent.com/LloydAsp/nfd/main/data/fraud.db")
	viper.SetDefault("fraud.timeout", "10s")
	viper.SetDefault("relay.correlation_ttl", "720h")
	viper.SetDefault("relay.update_timeout", "30s")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")

	token := viper.GetString("bot.token")
	if token == "" {
		return nil, fmt.Errorf("bot.token is required")
	}

	secret := viper.GetString("bot.webhook_secret")
	if secret == "" {
		return nil, fmt.Errorf("bot.webhook_secret is required")
	}

	ownerUID := viper.GetInt64("bot.owner_uid")
	if ownerUID == 0 {
		return nil, fmt.Errorf("bot.owner_uid is required")
	}

	fraudTimeout, err := time.ParseDuration(viper.GetString("fraud.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid fraud.timeout: %w", err)
	}

	correlationTTL, err := time.ParseDuration(viper.GetString("relay.correlation_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid relay.correlation_ttl: %w", err)
	}
	if correlationTTL < 0 {
		return nil, fmt.Errorf("relay.correlation_ttl must not be negative")
	}

	updateTimeout, err := time.ParseDuration(viper.GetString("relay.update_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid relay.update_timeout: %w", err)
	}

	webhookPath := viper.GetString("bot.webhook_path")
	if !strings.HasPrefix(webhookPath, "/") {
		webhookPath = "/" + webhookPath
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Bot: BotConfig{
			Token:         token,
			WebhookSecret: secret,
			WebhookPath:   webhookPath,
			PublicURL:     strings.TrimRight(viper.GetString("bot.public_url"), "/"),
			OwnerUID:      ownerUID,
			StartMessage:  viper.GetString("bot.start_message"),
			AdminStartMsg: viper.GetString("bot.admin_start_message"),
		},
		Fraud: FraudConfig{
			ListURL: viper.GetString("fraud.list_url"),
			Timeout: fraudTimeout,
		},
		Relay: RelayConfig{
			CorrelationTTL: correlationTTL,
			UpdateTimeout:  updateTimeout,
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
	}

	return cfg, nil
}

// loadEnvFile 尝试加载 .env 文件（可选，静默失败）
func loadEnvFile() {
	candidates := []string{".env", filepath.Join("..", ".env")}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

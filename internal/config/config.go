package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Config 保存应用程序配置。
type Config struct {
	App      AppConfig      `json:"app"`
	MySQL    MySQLConfig    `json:"mysql"`
	Email    EmailConfig    `json:"email"`
	Security SecurityConfig `json:"security"`
	OpenAI   OpenAIConfig   `json:"openai"`
	Upload   UploadConfig   `json:"upload"`
}

// AppConfig 应用程序基础配置。
type AppConfig struct {
	Env      string `json:"env"`       // 运行环境: local / prod
	LogLevel string `json:"log_level"` // 日志级别: debug / info / warn / error
	HTTPAddr string `json:"http_addr"` // API 服务监听地址
	BaseURL  string `json:"base_url"`  // 对外访问地址，用于拼接上传文件链接
}

// MySQLConfig MySQL 数据库配置。
type MySQLConfig struct {
	DSN string `json:"dsn"` // 数据库连接字符串
}

// EmailConfig 邮件发送配置。
type EmailConfig struct {
	SMTPHost  string `json:"smtp_host"`
	SMTPPort  int    `json:"smtp_port"`
	SMTPUser  string `json:"smtp_user"`
	SMTPPass  string `json:"smtp_pass"`
	FromEmail string `json:"from_email"`
}

// SecurityConfig 安全相关配置。
type SecurityConfig struct {
	JWTSecret string `json:"jwt_secret"` // JWT 签名密钥
	// RevealUnknownEmail 控制请求重置密码时，邮箱不存在是否返回 404。
	// 为 false 时统一返回成功，避免暴露账号是否存在。
	RevealUnknownEmail bool `json:"reveal_unknown_email"`
}

// OpenAIConfig 视觉模型配置。
type OpenAIConfig struct {
	APIKey  string `json:"api_key"`  // API 密钥
	BaseURL string `json:"base_url"` // 自定义接口地址（为空使用官方地址）
	Model   string `json:"model"`    // 默认模型
}

// UploadConfig 图片上传配置。
type UploadConfig struct {
	Dir       string `json:"dir"`         // 上传文件存放目录
	MaxSizeMB int64  `json:"max_size_mb"` // 单次请求最大体积（MB）
}

// Load 从 JSON 文件加载配置。
//
// 它会尝试读取 configs/config.json 文件，如果不存在则使用默认值；
// 环境变量始终优先覆盖。
func Load(configPath ...string) (*Config, error) {
	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// getDefaultConfig 返回默认配置。
func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:      "local",
			LogLevel: "info",
			HTTPAddr: ":8080",
			BaseURL:  "http://localhost:8080",
		},
		MySQL: MySQLConfig{
			DSN: "root:password@tcp(localhost:3306)/instatags?parseTime=true&loc=Local",
		},
		Email: EmailConfig{
			SMTPHost:  "smtp.gmail.com",
			SMTPPort:  587,
			SMTPUser:  "",
			SMTPPass:  "",
			FromEmail: "",
		},
		Security: SecurityConfig{
			JWTSecret:          "dev_secret_change_me",
			RevealUnknownEmail: true,
		},
		OpenAI: OpenAIConfig{
			APIKey:  "",
			BaseURL: "",
			Model:   "gpt-4o",
		},
		Upload: UploadConfig{
			Dir:       "uploads",
			MaxSizeMB: 50,
		},
	}
}

// applyDefaults 对未设置的字段应用默认值。
func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = defaults.App.HTTPAddr
	}
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = defaults.App.BaseURL
	}
	if cfg.MySQL.DSN == "" {
		cfg.MySQL.DSN = defaults.MySQL.DSN
	}
	if cfg.Email.SMTPHost == "" {
		cfg.Email.SMTPHost = defaults.Email.SMTPHost
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = defaults.Email.SMTPPort
	}
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = defaults.Security.JWTSecret
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = defaults.OpenAI.Model
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = defaults.Upload.Dir
	}
	if cfg.Upload.MaxSizeMB == 0 {
		cfg.Upload.MaxSizeMB = defaults.Upload.MaxSizeMB
	}
}

func applyEnvOverrides(cfg *Config) {
	viper.AutomaticEnv()

	_ = viper.BindEnv("db_host", "DB_HOST")
	_ = viper.BindEnv("db_password", "DB_PASSWORD")
	_ = viper.BindEnv("smtp_pass", "SMTP_PASS")
	_ = viper.BindEnv("jwt_secret", "JWT_SECRET")
	_ = viper.BindEnv("openai_api_key", "OPENAI_API_KEY")

	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("APP_HTTP_ADDR"); v != "" {
		cfg.App.HTTPAddr = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.App.BaseURL = v
	}

	if v := viper.GetString("jwt_secret"); v != "" {
		cfg.Security.JWTSecret = v
	}
	if v := os.Getenv("REVEAL_UNKNOWN_EMAIL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Security.RevealUnknownEmail = b
		}
	}

	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.MySQL.DSN = v
	} else if hasAnyEnv("DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME") || viper.GetString("db_host") != "" || viper.GetString("db_password") != "" {
		parsed := parseMySQLDSN(cfg.MySQL.DSN)
		if v := viper.GetString("db_host"); v != "" {
			host := v
			port := getenvDefault("DB_PORT", parsed.Addr, "3306")
			parsed.Addr = host + ":" + port
		} else if v := os.Getenv("DB_PORT"); v != "" {
			host := parsed.Addr
			if strings.Contains(host, ":") {
				host = strings.Split(host, ":")[0]
			}
			parsed.Addr = host + ":" + v
		}
		if v := os.Getenv("DB_USER"); v != "" {
			parsed.User = v
		}
		if v := viper.GetString("db_password"); v != "" {
			parsed.Passwd = v
		}
		if v := os.Getenv("DB_NAME"); v != "" {
			parsed.DBName = v
		}
		cfg.MySQL.DSN = parsed.FormatDSN()
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = i
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Email.SMTPUser = v
	}
	if v := viper.GetString("smtp_pass"); v != "" {
		cfg.Email.SMTPPass = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.Email.FromEmail = v
	}

	if v := viper.GetString("openai_api_key"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}

	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Upload.Dir = v
	}
	if v := os.Getenv("UPLOAD_MAX_SIZE_MB"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Upload.MaxSizeMB = i
		}
	}
}

func hasAnyEnv(keys ...string) bool {
	for _, key := range keys {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

func getenvDefault(envKey, fallbackAddr, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if fallbackAddr == "" {
		return defaultValue
	}
	if strings.Contains(fallbackAddr, ":") {
		parts := strings.Split(fallbackAddr, ":")
		if len(parts) == 2 && parts[1] != "" {
			return parts[1]
		}
	}
	return defaultValue
}

func parseMySQLDSN(dsn string) *mysql.Config {
	fallback := &mysql.Config{
		User:   "root",
		Passwd: "",
		Net:    "tcp",
		Addr:   "localhost:3306",
		DBName: "instatags",
		Params: map[string]string{
			"parseTime": "true",
			"loc":       "Local",
		},
	}
	if dsn == "" {
		return fallback
	}
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fallback
	}
	return parsed
}

package configuration

import (
	"fmt"
	"os"
	"strconv"

	"crossposter/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Telegram    Telegram    `json:"telegram"`
	VK          VK          `json:"vk"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
}

type Telegram struct {
	Token       string `json:"token"`
	PollTimeout int    `json:"pollTimeout"` // long-poll timeout, seconds
	MaxRetries  int    `json:"maxRetries"`
	RetryDelay  int    `json:"retryDelay"` // seconds, base of the backoff
}

type VK struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	APIVersion   string `json:"apiVersion"`
	MaxRetries   int    `json:"maxRetries"`
	RetryDelay   int    `json:"retryDelay"` // seconds, base of the backoff
	MaxFileSize  int64  `json:"maxFileSize"`
	TempDir      string `json:"tempDir"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mssql Db `json:"mssql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initClients(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	// Optional MSSQL config (production store) via environment variables.
	if v := os.Getenv("MSSQL_DB_NAME"); v != "" && C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = v
	}
	if v := os.Getenv("MSSQL_HOST"); v != "" && C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = v
	}
	if v := os.Getenv("MSSQL_USER"); v != "" && C.Database.Mssql.User == "" {
		C.Database.Mssql.User = v
	}
	if v := os.Getenv("MSSQL_PASSWORD"); v != "" && C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = v
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = "1433"
	}

	if C.Database.Mongo.Host == "" {
		C.Database.Mongo.Host = os.Getenv("MONGO_HOST")
	}
	if C.Database.Mongo.Port == "" {
		C.Database.Mongo.Port = os.Getenv("MONGO_PORT")
	}
	if C.Database.Mongo.User == "" {
		C.Database.Mongo.User = os.Getenv("MONGO_USER")
	}
	if C.Database.Mongo.Password == "" {
		C.Database.Mongo.Password = os.Getenv("MONGO_PASSWORD")
	}
	if C.Database.Mongo.Name == "" {
		C.Database.Mongo.Name = os.Getenv("MONGO_DB_NAME")
	}
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; admin API authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initClients(C *Config) {
	if v := os.Getenv("TELEGRAM_API_TOKEN"); v != "" {
		C.Telegram.Token = v
	}
	if C.Telegram.PollTimeout == 0 {
		C.Telegram.PollTimeout = 30
	}
	if C.Telegram.MaxRetries == 0 {
		C.Telegram.MaxRetries = 3
	}
	if C.Telegram.RetryDelay == 0 {
		C.Telegram.RetryDelay = 1
	}
	if v := os.Getenv("VK_CLIENT_ID"); v != "" {
		C.VK.ClientID = v
	}
	if v := os.Getenv("VK_CLIENT_SECRET"); v != "" {
		C.VK.ClientSecret = v
	}
	if C.VK.APIVersion == "" {
		C.VK.APIVersion = "5.199"
	}
	if v := os.Getenv("VK_API_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			C.VK.MaxRetries = n
		}
	}
	if C.VK.MaxRetries == 0 {
		C.VK.MaxRetries = 3
	}
	if C.VK.RetryDelay == 0 {
		C.VK.RetryDelay = 1
	}
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			C.VK.MaxFileSize = n
		}
	}
	if C.VK.MaxFileSize == 0 {
		C.VK.MaxFileSize = 100 * 1024 * 1024
	}
	if v := os.Getenv("TEMP_DIR"); v != "" {
		C.VK.TempDir = v
	}
	if C.VK.TempDir == "" {
		C.VK.TempDir = "./temp_files"
	}
}

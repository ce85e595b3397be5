package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const secretMask = "******"

type Config struct {
	App        `yaml:"app"`
	Logger     `yaml:"log"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	WhatsApp   `yaml:"whatsapp"`
	Webhook    `yaml:"webhook"`
	Kafka      `yaml:"kafka"`
}

type App struct {
	ServiceName string `yaml:"service_name" env:"APP_SERVICE_NAME" env-default:"greengate"`
	Version     string `yaml:"version" env:"APP_VERSION" env-default:"1.0.0"`
}

type Logger struct {
	Level      string   `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	FormatJSON bool     `yaml:"format_json" env:"LOG_FORMAT_JSON"`
	Rotation   Rotation `yaml:"rotation"`
}

type Rotation struct {
	File       string `yaml:"file" env:"LOG_ROTATION_FILE"`
	MaxSize    int    `yaml:"max_size" env:"LOG_ROTATION_MAX_SIZE" env-default:"10"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_ROTATION_MAX_BACKUPS" env-default:"3"`
	MaxAge     int    `yaml:"max_age" env:"LOG_ROTATION_MAX_AGE" env-default:"7"`
}

type Database struct {
	Host      string    `yaml:"host" env:"DATABASE_HOST" env-default:"localhost"`
	Port      uint16    `yaml:"port" env:"DATABASE_PORT" env-default:"5432"`
	User      string    `yaml:"user" env:"DATABASE_USER"`
	Password  string    `yaml:"password" env:"DATABASE_PASSWORD"`
	Name      string    `yaml:"name" env:"DATABASE_NAME" env-default:"greengate"`
	SSLMode   string    `yaml:"ssl_mode" env:"DATABASE_SSL_MODE" env-default:"disable"`
	MaxConns  int32     `yaml:"max_conns" env:"DATABASE_MAX_CONNS" env-default:"10"`
	MinConns  int32     `yaml:"min_conns" env:"DATABASE_MIN_CONNS" env-default:"1"`
	Migration Migration `yaml:"migration"`
}

type Migration struct {
	Path      string `yaml:"path" env:"DATABASE_MIGRATION_PATH" env-default:"./migrations"`
	AutoApply bool   `yaml:"auto_apply" env:"DATABASE_MIGRATION_AUTO_APPLY"`
}

type Redis struct {
	Enable   bool          `yaml:"enable" env:"REDIS_ENABLE"`
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     uint16        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"5m"`
}

type HTTPServer struct {
	Host       string  `yaml:"host" env:"HTTP_SERVER_HOST" env-default:"0.0.0.0"`
	Port       uint16  `yaml:"port" env:"HTTP_SERVER_PORT" env-default:"3000"`
	BasePath   string  `yaml:"base_path" env:"HTTP_SERVER_BASE_PATH" env-default:"/api"`
	APIKeyHash string  `yaml:"api_key_hash" env:"HTTP_SERVER_API_KEY_HASH"`
	Timeout    Timeout `yaml:"timeout"`
	CORS       CORS    `yaml:"cors"`
}

type Timeout struct {
	Request time.Duration `yaml:"request" env:"HTTP_SERVER_TIMEOUT_REQUEST" env-default:"30s"`
	Read    time.Duration `yaml:"read" env:"HTTP_SERVER_TIMEOUT_READ" env-default:"10s"`
	Write   time.Duration `yaml:"write" env:"HTTP_SERVER_TIMEOUT_WRITE" env-default:"30s"`
	Idle    time.Duration `yaml:"idle" env:"HTTP_SERVER_TIMEOUT_IDLE" env-default:"60s"`
}

type CORS struct {
	Enabled          bool          `yaml:"enabled" env:"CORS_ENABLED"`
	AllowAllOrigins  bool          `yaml:"allow_all_origins" env:"CORS_ALLOW_ALL_ORIGINS"`
	AllowOrigins     []string      `yaml:"allow_origins" env:"CORS_ALLOW_ORIGINS" env-separator:","`
	AllowMethods     []string      `yaml:"allow_methods" env:"CORS_ALLOW_METHODS" env-separator:"," env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowHeaders     []string      `yaml:"allow_headers" env:"CORS_ALLOW_HEADERS" env-separator:"," env-default:"Origin,Content-Type,Authorization,X-API-Key"`
	ExposeHeaders    []string      `yaml:"expose_headers" env:"CORS_EXPOSE_HEADERS" env-separator:","`
	AllowCredentials bool          `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
	MaxAge           time.Duration `yaml:"max_age" env:"CORS_MAX_AGE" env-default:"12h"`
	AllowWebSockets  bool          `yaml:"allow_websockets" env:"CORS_ALLOW_WEBSOCKETS"`
	AllowFiles       bool          `yaml:"allow_files" env:"CORS_ALLOW_FILES"`
}

// WhatsApp holds the Graph API endpoint and optional bootstrap credentials.
// Values stored through /api/config take precedence over the bootstrap ones.
type WhatsApp struct {
	BaseURL       string        `yaml:"base_url" env:"WHATSAPP_BASE_URL" env-default:"https://graph.facebook.com"`
	APIVersion    string        `yaml:"api_version" env:"WHATSAPP_API_VERSION" env-default:"v18.0"`
	HTTPTimeout   time.Duration `yaml:"http_timeout" env:"WHATSAPP_HTTP_TIMEOUT" env-default:"15s"`
	WebhookURL    string        `yaml:"webhook_url" env:"WEBHOOK_URL"`
	AccessToken   string        `yaml:"access_token" env:"WHATSAPP_ACCESS_TOKEN"`
	WabaID        string        `yaml:"waba_id" env:"WHATSAPP_WABA_ID"`
	PhoneNumberID string        `yaml:"phone_number_id" env:"WHATSAPP_PHONE_NUMBER_ID"`
	VerifyToken   string        `yaml:"verify_token" env:"WHATSAPP_VERIFY_TOKEN"`
}

type Webhook struct {
	Path              string        `yaml:"path" env:"WEBHOOK_PATH" env-default:"/webhook"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" env:"WEBHOOK_MAX_BODY_BYTES" env-default:"1048576"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout" env:"WEBHOOK_PROCESSING_TIMEOUT" env-default:"30s"`
	ShutdownGrace     time.Duration `yaml:"shutdown_grace" env:"WEBHOOK_SHUTDOWN_GRACE" env-default:"10s"`
}

type Kafka struct {
	Enabled  bool     `yaml:"enabled" env:"KAFKA_ENABLED"`
	Brokers  []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Producer Producer `yaml:"producer"`
}

type Producer struct {
	Name         string        `yaml:"name" env:"KAFKA_PRODUCER_NAME" env-default:"message-events"`
	Topic        string        `yaml:"topic" env:"KAFKA_PRODUCER_TOPIC" env-default:"greengate.message-events"`
	WorkerCount  int           `yaml:"worker_count" env:"KAFKA_PRODUCER_WORKER_COUNT" env-default:"2"`
	PollInterval time.Duration `yaml:"poll_interval" env:"KAFKA_PRODUCER_POLL_INTERVAL" env-default:"1s"`
	BatchSize    int           `yaml:"batch_size" env:"KAFKA_PRODUCER_BATCH_SIZE" env-default:"100"`
	Retention    time.Duration `yaml:"retention" env:"KAFKA_PRODUCER_RETENTION" env-default:"168h"`
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadConfig reads the file given by -config / CONFIG_PATH, or only the environment when neither is set.
func LoadConfig() (*Config, error) {
	return LoadConfigFromPath(fetchConfigPath())
}

func LoadConfigFromPath(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}

		return &cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func MustPrintConfig(cfg *Config) {
	if err := PrintConfig(cfg); err != nil {
		panic(err)
	}
}

func PrintConfig(cfg *Config) error {
	data, err := yaml.Marshal(Masked(cfg))
	if err != nil {
		return err
	}

	println(string(data))

	return nil
}

// Masked returns a copy safe for printing.
func Masked(cfg *Config) Config {
	masked := *cfg

	for _, s := range []*string{
		&masked.Database.Password,
		&masked.Redis.Password,
		&masked.HTTPServer.APIKeyHash,
		&masked.WhatsApp.AccessToken,
		&masked.WhatsApp.VerifyToken,
	} {
		if *s != "" {
			*s = secretMask
		}
	}

	return masked
}

func fetchConfigPath() string {
	var result string

	flag.StringVar(&result, "config", "", "Path to config file")
	flag.Parse()

	if result == "" {
		result = os.Getenv("CONFIG_PATH")
	}

	return result
}

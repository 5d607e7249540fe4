package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
	SlowThresholdMs    int
}

type Ledger struct {
	BorrowLimit int
	LoanDays    int
	OpTimeoutMs int
}

func (l Ledger) LoanPeriod() time.Duration { return time.Duration(l.LoanDays) * 24 * time.Hour }
func (l Ledger) OpTimeout() time.Duration  { return time.Duration(l.OpTimeoutMs) * time.Millisecond }

type Cache struct {
	TTLSec int
}

type Limits struct {
	RPS            float64
	Burst          int
	Concurrency    int64
	MaxBodyBytes   int64
	RequestTimeout int // seconds
}

type CORS struct {
	AllowOrigins []string
}

// Bootstrap creates the first admin account when the admin server starts.
type Bootstrap struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	DB        DB
	Redis     Redis `mapstructure:"redis"`
	Ledger    Ledger
	Cache     Cache
	Limits    Limits
	CORS      CORS
	Bootstrap Bootstrap
}

func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

// Read loads the yaml file at path (CONFIG_PATH or ./configs/config.local.yaml
// when empty) and applies APP_* environment overrides, e.g. APP_DB_DSN.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "library")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file.filename", "logs/library.log")
	v.SetDefault("log.file.maxsizemb", 100)
	v.SetDefault("log.file.maxbackups", 7)
	v.SetDefault("log.file.maxagedays", 30)

	v.SetDefault("jwt.issuer", "library")
	v.SetDefault("jwt.accesstokenttlmin", 60)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:library.db?_busy_timeout=5000&_foreign_keys=1")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("db.slowthresholdms", 200)

	v.SetDefault("ledger.borrowlimit", 3)
	v.SetDefault("ledger.loandays", 14)
	v.SetDefault("ledger.optimeoutms", 3000)

	v.SetDefault("cache.ttlsec", 60)

	v.SetDefault("limits.rps", 20)
	v.SetDefault("limits.burst", 40)
	v.SetDefault("limits.concurrency", 300)
	v.SetDefault("limits.maxbodybytes", 1<<20)
	v.SetDefault("limits.requesttimeout", 10)

	v.SetDefault("cors.alloworigins", []string{"*"})
	v.SetDefault("bootstrap.adminname", "admin")
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	if c.Ledger.BorrowLimit <= 0 {
		return fmt.Errorf("config: ledger.borrowlimit must be positive")
	}
	if c.Ledger.LoanDays <= 0 {
		return fmt.Errorf("config: ledger.loandays must be positive")
	}
	if c.Ledger.OpTimeoutMs <= 0 {
		return fmt.Errorf("config: ledger.optimeoutms must be positive")
	}
	return nil
}

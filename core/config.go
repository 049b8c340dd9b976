package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Platforms the client runs on. Only PlatformIOS changes behaviour (session propagation delay).
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

type (
	BackendConfig struct {
		Endpoint   string
		ProjectID  string
		FunctionID string
		Timeout    time.Duration
		RateLimit  float64 // function executions per second
		RateBurst  int
	}

	SessionConfig struct {
		Platform         string
		PropagationDelay time.Duration
		Retries          int
		RetryDelay       time.Duration
	}

	SearchConfig struct {
		Debounce  time.Duration
		MinLength int
	}

	ServerConfig struct {
		Address                string
		SecretKey              string
		SessionExpirationDelta time.Duration
	}

	EmailConfig struct {
		DefaultFrom string
		SendgridKey string
	}

	// SeedUser is a user the dev backend creates on start.
	SeedUser struct {
		Name      string `mapstructure:"name"`
		Email     string `mapstructure:"email"`
		Password  string `mapstructure:"password"`
		Label     string `mapstructure:"label"`
		Specialty string `mapstructure:"specialty"`
		Day       string `mapstructure:"day"`
	}

	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		RollbarToken string

		Backend  BackendConfig
		Session  SessionConfig
		Search   SearchConfig
		Server   ServerConfig
		Email    EmailConfig
		SeedData bool // seed the notification panel with demo notifications

		RealtimeReconnectDelay time.Duration
		DevUsers               []SeedUser
	}
)

// NewConfig reads the configuration from defaults, the optional config/.env.<env> file and the environment.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Preceptor")
	conf.SetDefault("build", "dev")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("backend.endpoint", "https://cloud.appwrite.io/v1")
	conf.SetDefault("backend.projectID", "67cfd8da000a715e73fa")
	conf.SetDefault("backend.functionID", "labels")
	conf.SetDefault("backend.timeout", 10*time.Second)
	conf.SetDefault("backend.rateLimit", 5.0)
	conf.SetDefault("backend.rateBurst", 5)
	conf.SetDefault("session.platform", PlatformAndroid)
	conf.SetDefault("session.propagationDelay", 500*time.Millisecond)
	conf.SetDefault("session.retries", 3)
	conf.SetDefault("session.retryDelay", 500*time.Millisecond)
	conf.SetDefault("search.debounce", 800*time.Millisecond)
	conf.SetDefault("search.minLength", 2)
	conf.SetDefault("notifications.seed", true)
	conf.SetDefault("realtime.reconnectDelay", 2*time.Second)
	conf.SetDefault("server.address", ":8090")
	conf.SetDefault("server.secretKey", "h8#k2v!q-dev-only-7t$z^p0w&m1x@c9r")
	conf.SetDefault("server.sessionExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("email.defaultFrom", "noreply@localhost")
	conf.SetDefault("email.sendgridKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	configDir := filepath.Join(Getwd(), "config")
	dotEnvPath := filepath.Join(configDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	// dev backend seed users only come from a config file
	conf.SetConfigName("devserver")
	conf.AddConfigPath(configDir)
	_ = conf.ReadInConfig()

	return configFromViper(conf, env)
}

func configFromViper(conf *viper.Viper, env string) *Config {
	c := &Config{
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		RollbarToken: conf.GetString("rollbarToken"),
		Backend: BackendConfig{
			Endpoint:   strings.TrimRight(conf.GetString("backend.endpoint"), "/"),
			ProjectID:  conf.GetString("backend.projectID"),
			FunctionID: conf.GetString("backend.functionID"),
			Timeout:    conf.GetDuration("backend.timeout"),
			RateLimit:  conf.GetFloat64("backend.rateLimit"),
			RateBurst:  conf.GetInt("backend.rateBurst"),
		},
		Session: SessionConfig{
			Platform:         strings.ToLower(conf.GetString("session.platform")),
			PropagationDelay: conf.GetDuration("session.propagationDelay"),
			Retries:          conf.GetInt("session.retries"),
			RetryDelay:       conf.GetDuration("session.retryDelay"),
		},
		Search: SearchConfig{
			Debounce:  conf.GetDuration("search.debounce"),
			MinLength: conf.GetInt("search.minLength"),
		},
		Server: ServerConfig{
			Address:                conf.GetString("server.address"),
			SecretKey:              conf.GetString("server.secretKey"),
			SessionExpirationDelta: conf.GetDuration("server.sessionExpirationDelta"),
		},
		Email: EmailConfig{
			DefaultFrom: conf.GetString("email.defaultFrom"),
			SendgridKey: conf.GetString("email.sendgridKey"),
		},
		SeedData:               conf.GetBool("notifications.seed"),
		RealtimeReconnectDelay: conf.GetDuration("realtime.reconnectDelay"),
	}
	if err := conf.UnmarshalKey("devserver.users", &c.DevUsers); err != nil {
		log.Printf("config: reading devserver.users: %v", err)
	}
	return c
}

// NewTestConfig returns a Config suitable for tests: no delays worth waiting for and no demo data.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Env = "TEST"
	conf.TestMode = true
	conf.Debug = true
	conf.Backend.RateLimit = 0
	conf.Session.PropagationDelay = time.Millisecond
	conf.Session.RetryDelay = time.Millisecond
	conf.Search.Debounce = 20 * time.Millisecond
	conf.SeedData = false
	conf.RealtimeReconnectDelay = 10 * time.Millisecond
	return conf
}

// IsIOS reports whether the client runs on iOS, where new sessions take a moment to propagate.
func (c *Config) IsIOS() bool {
	return c.Session.Platform == PlatformIOS
}

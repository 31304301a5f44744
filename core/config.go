package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		TrustUserHeader    bool // accept the bare `x-user` header without a bearer token
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	PortalConfig struct {
		BackendURL               string
		MirrorURL                string // json-server mirror used when a read on BackendURL fails
		SessionFile              string
		RequestTimeout           time.Duration
		NotificationPollInterval time.Duration
		ChatPollInterval         time.Duration
	}

	Config struct {
		AppName          string
		Build            string
		Env              string
		Debug            bool
		TestMode         bool
		WorkDir          string
		SecretKey        string
		FrontendBaseURL  string
		SendgridApiKey   string
		RollbarToken     string
		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Portal   PortalConfig
	}
)

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

func (db DatabaseConfig) Address() string {
	return db.Host + ":" + db.Port
}

// NewConfig loads the configuration of the current ENV (DEV by default) from
// the environment and an optional config/.env.<env> file.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Masomo")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.trustUserHeader", true)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "masomo")
	v.SetDefault("database.password", "masomo")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.name", "masomo")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("portal.backendURL", "http://localhost:8000")
	v.SetDefault("portal.mirrorURL", "")
	v.SetDefault("portal.sessionFile", filepath.Join(os.TempDir(), "masomo-portal-session.json"))
	v.SetDefault("portal.requestTimeout", 0*time.Second)
	v.SetDefault("portal.notificationPollInterval", 30*time.Second)
	v.SetDefault("portal.chatPollInterval", 3*time.Second)

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// e.g. DEV_SERVER_ADDRESS overrides server.address
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		WorkDir:          workDir,
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			TrustUserHeader:    v.GetBool("server.trustUserHeader"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Portal: PortalConfig{
			BackendURL:               v.GetString("portal.backendURL"),
			MirrorURL:                v.GetString("portal.mirrorURL"),
			SessionFile:              v.GetString("portal.sessionFile"),
			RequestTimeout:           v.GetDuration("portal.requestTimeout"),
			NotificationPollInterval: v.GetDuration("portal.notificationPollInterval"),
			ChatPollInterval:         v.GetDuration("portal.chatPollInterval"),
		},
	}
}

// NewTestConfig returns a config suitable for tests; it never touches the environment.
func NewTestConfig() *Config {
	return &Config{
		AppName:          "Masomo",
		Build:            "test",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:3000",
		defaultFromEmail: "noreply@localhost",
		Server: ServerConfig{
			JWTExpirationDelta: 10 * time.Minute,
			ShutdownTimeout:    time.Second,
			TrustUserHeader:    true,
		},
		Portal: PortalConfig{
			NotificationPollInterval: 30 * time.Second,
			ChatPollInterval:         3 * time.Second,
		},
	}
}

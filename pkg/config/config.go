package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Sheets        SheetsConfig
	Admin         AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KHETIHAL_APP_ENV" required:"true"`
	Port         string `envconfig:"KHETIHAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KHETIHAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KHETIHAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KHETIHAL_DB_DSN"`
	Driver string `envconfig:"KHETIHAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KHETIHAL_DB_HOST"`
	LegacyPort     int    `envconfig:"KHETIHAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KHETIHAL_DB_USER"`
	LegacyPassword string `envconfig:"KHETIHAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"KHETIHAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"KHETIHAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KHETIHAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KHETIHAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KHETIHAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KHETIHAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KHETIHAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KHETIHAL_REDIS_ADDR"`
	Password     string        `envconfig:"KHETIHAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"KHETIHAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KHETIHAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KHETIHAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KHETIHAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KHETIHAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KHETIHAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"KHETIHAL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"KHETIHAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"KHETIHAL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"KHETIHAL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KHETIHAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KHETIHAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KHETIHAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KHETIHAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KHETIHAL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"KHETIHAL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"KHETIHAL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"KHETIHAL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"KHETIHAL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"KHETIHAL_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"KHETIHAL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KHETIHAL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KHETIHAL_AUTO_MIGRATE" default:"false"`
}

// SheetsConfig wires the Google Sheets mirror. The mirror is optional: when no
// credentials are configured the adapter is disabled and callers see empty
// reads and failed writes, matching a sheet that cannot be reached.
type SheetsConfig struct {
	CredentialsFile  string        `envconfig:"KHETIHAL_SHEETS_CREDENTIALS_FILE"`
	CredentialsJSON  string        `envconfig:"KHETIHAL_SHEETS_CREDENTIALS_JSON"`
	SpreadsheetID    string        `envconfig:"KHETIHAL_SHEETS_SPREADSHEET_ID"`
	ProductsSheet    string        `envconfig:"KHETIHAL_SHEETS_PRODUCTS_SHEET" default:"products"`
	OrdersSheet      string        `envconfig:"KHETIHAL_SHEETS_ORDERS_SHEET" default:"orders"`
	CallTimeout      time.Duration `envconfig:"KHETIHAL_SHEETS_CALL_TIMEOUT" default:"10s"`
	MirrorOnCheckout bool          `envconfig:"KHETIHAL_SHEETS_MIRROR_ON_CHECKOUT" default:"true"`
}

// Enabled reports whether the mirror has enough configuration to be reachable.
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != "" && (s.CredentialsFile != "" || s.CredentialsJSON != "")
}

// AdminConfig seeds the bootstrap admin account on first migration.
type AdminConfig struct {
	Email    string `envconfig:"KHETIHAL_ADMIN_EMAIL" default:"admin@khetihal.com"`
	Username string `envconfig:"KHETIHAL_ADMIN_USERNAME" default:"admin"`
	Password string `envconfig:"KHETIHAL_ADMIN_PASSWORD"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

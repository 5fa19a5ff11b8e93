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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Circulation   CirculationConfig
	EntryLog      EntryLogConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cron          CronConfig
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
	Env          string `envconfig:"SHELFLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHELFLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHELFLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHELFLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHELFLINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHELFLINE_DB_DSN"`
	Driver string `envconfig:"SHELFLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHELFLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHELFLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHELFLINE_DB_USER"`
	LegacyPassword string `envconfig:"SHELFLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHELFLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHELFLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHELFLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHELFLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHELFLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHELFLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHELFLINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHELFLINE_REDIS_ADDR"`
	Password     string        `envconfig:"SHELFLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHELFLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHELFLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHELFLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHELFLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHELFLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHELFLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SHELFLINE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SHELFLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SHELFLINE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SHELFLINE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHELFLINE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHELFLINE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHELFLINE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHELFLINE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHELFLINE_ARGON_KEY_LEN" default:"32"`
}

// CirculationConfig carries the lending policy knobs. The defaults mirror the
// library's standing policy: ten-day loans, ten units per late day, capped at
// ten days of accrual.
type CirculationConfig struct {
	LoanPeriod     time.Duration `envconfig:"SHELFLINE_LOAN_PERIOD" default:"240h"`
	PenaltyPerDay  int           `envconfig:"SHELFLINE_PENALTY_PER_DAY" default:"10"`
	PenaltyCapDays int           `envconfig:"SHELFLINE_PENALTY_CAP_DAYS" default:"10"`
}

type EntryLogConfig struct {
	IdleTimeout time.Duration `envconfig:"SHELFLINE_ENTRY_IDLE_TIMEOUT" default:"10m"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SHELFLINE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"SHELFLINE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"SHELFLINE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHELFLINE_AUTO_MIGRATE" default:"false"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SHELFLINE_CRON_INTERVAL" default:"24h"`
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

package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
}

// Runtime holds the settings the HTTP process needs before the database is reachable.
type Runtime struct {
	Port                string        `env:"PORT" envDefault:"8080"`
	FirebaseProjectID   string        `env:"FIREBASE_PROJECT_ID"`
	StorageBucket       string        `env:"STORAGE_BUCKET"`
	CredentialsFile     string        `env:"GOOGLE_CREDENTIALS_FILE"`
	RedisURL            string        `env:"REDIS_URL"`
	RequestTTL          time.Duration `env:"REQUEST_TTL" envDefault:"72h"`
	SweepSchedule       string        `env:"SWEEP_SCHEDULE" envDefault:"@every 10m"`
	MessageRatePerSec   float64       `env:"MESSAGE_RATE_PER_SEC" envDefault:"5"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOriginSuffix string        `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"vercel.app"`
	GitSHA              string        `env:"GIT_SHA"`
	BuildTime           string        `env:"BUILD_TIME"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadRuntime() (*Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

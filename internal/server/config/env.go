package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "FARMSYNC_"

// loadDotEnv seeds the process environment from path when it exists.
// Variables already set are left alone.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("GRPC_ADDR", &c.EndpointAddrGRPC)
	str("METRICS_ADDR", &c.MetricsAddr)
	str("MASTER_SECRET", &c.MasterSecret)
	str("SECRET_KEY", &c.SecretKey)
	str("STORE", &c.StoreDriver)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("MONGO_URI", &c.MongoURI)
	str("MONGO_DATABASE", &c.MongoDatabase)
	str("JOBS", &c.JobsDriver)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	for name, dst := range map[string]*int{
		"REDIS_DB":            &c.RedisDB,
		"WORKERS":             &c.Workers,
		"QUEUE_SIZE":          &c.QueueSize,
		"MAX_CREATE_ATTEMPTS": &c.MaxCreateAttempts,
		"MAX_BATCH_SIZE":      &c.MaxBatchSize,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}
	for name, dst := range map[string]*time.Duration{
		"TOKEN_VALIDITY": &c.TokenValidity,
		"JOB_TTL":        &c.JobTTL,
		"RECORD_TIMEOUT": &c.RecordTimeout,
	} {
		if err := dur(name, dst); err != nil {
			return err
		}
	}
	return nil
}

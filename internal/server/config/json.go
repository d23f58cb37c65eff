package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/farmsync/internal/flagx"
	"github.com/dmitrijs2005/farmsync/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Keys missing from the file keep
// the value Config already had.
type JsonConfig struct {
	EndpointAddrGRPC  string         `json:"endpoint_addr_grpc"`
	MetricsAddr       string         `json:"metrics_addr"`
	MasterSecret      string         `json:"master_secret"`
	SecretKey         string         `json:"secret_key"`
	TokenValidity     timex.Duration `json:"token_validity"`
	StoreDriver       string         `json:"store"`
	DatabaseDSN       string         `json:"database_dsn"`
	MongoURI          string         `json:"mongo_uri"`
	MongoDatabase     string         `json:"mongo_database"`
	JobsDriver        string         `json:"jobs"`
	RedisAddr         string         `json:"redis_addr"`
	RedisPassword     string         `json:"redis_password"`
	RedisDB           int            `json:"redis_db"`
	JobTTL            timex.Duration `json:"job_ttl"`
	Workers           int            `json:"workers"`
	QueueSize         int            `json:"queue_size"`
	RecordTimeout     timex.Duration `json:"record_timeout"`
	MaxCreateAttempts int            `json:"max_create_attempts"`
	MaxBatchSize      int            `json:"max_batch_size"`
	LogLevel          string         `json:"log_level"`
	LogFormat         string         `json:"log_format"`
}

func fromConfig(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:  c.EndpointAddrGRPC,
		MetricsAddr:       c.MetricsAddr,
		MasterSecret:      c.MasterSecret,
		SecretKey:         c.SecretKey,
		TokenValidity:     timex.Duration{Duration: c.TokenValidity},
		StoreDriver:       c.StoreDriver,
		DatabaseDSN:       c.DatabaseDSN,
		MongoURI:          c.MongoURI,
		MongoDatabase:     c.MongoDatabase,
		JobsDriver:        c.JobsDriver,
		RedisAddr:         c.RedisAddr,
		RedisPassword:     c.RedisPassword,
		RedisDB:           c.RedisDB,
		JobTTL:            timex.Duration{Duration: c.JobTTL},
		Workers:           c.Workers,
		QueueSize:         c.QueueSize,
		RecordTimeout:     timex.Duration{Duration: c.RecordTimeout},
		MaxCreateAttempts: c.MaxCreateAttempts,
		MaxBatchSize:      c.MaxBatchSize,
		LogLevel:          c.LogLevel,
		LogFormat:         c.LogFormat,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.MetricsAddr = j.MetricsAddr
	c.MasterSecret = j.MasterSecret
	c.SecretKey = j.SecretKey
	c.TokenValidity = j.TokenValidity.Duration
	c.StoreDriver = j.StoreDriver
	c.DatabaseDSN = j.DatabaseDSN
	c.MongoURI = j.MongoURI
	c.MongoDatabase = j.MongoDatabase
	c.JobsDriver = j.JobsDriver
	c.RedisAddr = j.RedisAddr
	c.RedisPassword = j.RedisPassword
	c.RedisDB = j.RedisDB
	c.JobTTL = j.JobTTL.Duration
	c.Workers = j.Workers
	c.QueueSize = j.QueueSize
	c.RecordTimeout = j.RecordTimeout.Duration
	c.MaxCreateAttempts = j.MaxCreateAttempts
	c.MaxBatchSize = j.MaxBatchSize
	c.LogLevel = j.LogLevel
	c.LogFormat = j.LogFormat
}

// parseJson overlays the JSON file named by -c/-config in args onto config.
// Without that flag nothing changes.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	j := fromConfig(config)
	if err := json.Unmarshal(file, j); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	j.apply(config)
	return nil
}

package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/farmsync/internal/flagx"
)

// serverFlags are the flag names owned by the server.
var serverFlags = []string{
	"a", "m", "k", "s", "token-ttl",
	"store", "d", "mongo-uri", "mongo-db",
	"jobs", "redis", "redis-db", "job-ttl",
	"w", "q", "record-timeout", "max-attempts", "max-batch",
	"l", "log-format",
}

// parseFlags overlays command-line flags onto config.
//
//	-a  string     gRPC bind address (e.g. ":50051")
//	-m  string     metrics HTTP bind address, empty disables it
//	-k  string     master secret for field encryption
//	-s  string     operator token signing secret
//	-store string  farmer store: memory, postgres or mongo
//	-d  string     PostgreSQL DSN
//	-jobs string   job table: memory or redis
//	-w  int        worker count
//	-q  int        task queue capacity
//	-l  string     log level
//
// Durations take Go duration syntax ("30s", "1h").
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port to serve metrics")
	fs.StringVar(&config.MasterSecret, "k", config.MasterSecret, "master secret")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token secret key")
	fs.DurationVar(&config.TokenValidity, "token-ttl", config.TokenValidity, "operator token validity")

	fs.StringVar(&config.StoreDriver, "store", config.StoreDriver, "farmer store driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "mongo-uri", config.MongoURI, "mongo connection URI")
	fs.StringVar(&config.MongoDatabase, "mongo-db", config.MongoDatabase, "mongo database name")

	fs.StringVar(&config.JobsDriver, "jobs", config.JobsDriver, "job table driver")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.IntVar(&config.RedisDB, "redis-db", config.RedisDB, "redis database number")
	fs.DurationVar(&config.JobTTL, "job-ttl", config.JobTTL, "how long finished jobs are kept")

	fs.IntVar(&config.Workers, "w", config.Workers, "number of workers")
	fs.IntVar(&config.QueueSize, "q", config.QueueSize, "task queue capacity")
	fs.DurationVar(&config.RecordTimeout, "record-timeout", config.RecordTimeout, "per-record processing timeout")
	fs.IntVar(&config.MaxCreateAttempts, "max-attempts", config.MaxCreateAttempts, "create attempts per record")
	fs.IntVar(&config.MaxBatchSize, "max-batch", config.MaxBatchSize, "maximum records per batch")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format: text or json")

	return fs.Parse(flagx.FilterArgs(args, serverFlags...))
}

package backends

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strconv"

	badgerbackend "dappdir/internal/backends/badger"
	"dappdir/internal/backends/ddb"
	"dappdir/internal/backends/memory"
	redisbackend "dappdir/internal/backends/redis"
	"dappdir/internal/ports"
	"dappdir/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	KVBackendEnvKey = "KV_BACKEND"
	KVKeyPrefixKey  = "KV_KEY_PREFIX"
	BackendDDB      = "ddb"
	BackendRedis    = "redis"
	BackendBadger   = "badger"
	BackendMemory   = "memory"

	DDBEndpointKey = "DDB_ENDPOINT"
	DDBTableKey    = "DDB_TABLE"

	BadgerPathKey = "BADGER_PATH"

	RedisURL   = "REDIS_URL"
	RedisHost  = "REDIS_HOST"
	RedisPort  = "REDIS_PORT"
	RedisUser  = "REDIS_USER"
	RedisPass  = "REDIS_PASS"
	RedisTLS   = "REDIS_SSL"
	RedisDBNum = "REDIS_DB_NUM"
)

const AmazonRootCA1PEM = `-----BEGIN CERTIFICATE-----
MIIDQTCCAimgAwIBAgITBmyfz5m/jAo54vB4ikPmljZbyjANBgkqhkiG9w0BAQsF
ADA5MQswCQYDVQQGEwJVUzEPMA0GA1UEChMGQW1hem9uMRkwFwYDVQQDExBBbWF6
b24gUm9vdCBDQSAxMB4XDTE1MDUyNjAwMDAwMFoXDTM4MDExNzAwMDAwMFowOTEL
MAkGA1UEBhMCVVMxDzANBgNVBAoTBkFtYXpvbjEZMBcGA1UEAxMQQW1hem9uIFJv
b3QgQ0EgMTCCASIwDQYJKoZIhvcNAQEBBQADggEPADCCAQoCggEBALJ4gHHKeNXj
ca9HgFB0fW7Y14h29Jlo91ghYPl0hAEvrAIthtOgQ3pOsqTQNroBvo3bSMgHFzZM
9O6II8c+6zf1tRn4SWiw3te5djgdYZ6k/oI2peVKVuRF4fn9tBb6dNqcmzU5L/qw
IFAGbHrQgLKm+a/sRxmPUDgH3KKHOVj4utWp+UhnMJbulHheb4mjUcAwhmahRWa6
VOujw5H5SNz/0egwLX0tdHA114gk957EWW67c4cX8jJGKLhD+rcdqsq08p8kDi1L
93FcXmn/6pUCyziKrlA4b9v7LWIbxcceVOF34GfID5yHI9Y/QCB/IIDEgEw+OyQm
jgSubJrIqg0CAwEAAaNCMEAwDwYDVR0TAQH/BAUwAwEB/zAOBgNVHQ8BAf8EBAMC
AYYwHQYDVR0OBBYEFIQYzIU07LwMlJQuCFmcx7IQTgoIMA0GCSqGSIb3DQEBCwUA
A4IBAQCY8jdaQZChGsV2USggNiMOruYou6r4lK5IpDB/G/wkjUu0yKGX9rbxenDI
U5PMCCjjmCXPI6T53iHTfIUJrU6adTrCC2qJeHZERxhlbI1Bjjt/msv0tadQ1wUs
N+gDS63pYaACbvXy8MWy7Vu33PqUXHeeE6V/Uq2V8viTO96LXFvKWlJbYK8U90vv
o/ufQJVtMVT8QtPHRh8jrdkPSHCa2XV4cdFyQzR1bldZwgJcJmApzyMZFo6IQ6XU
5MsI+yMRQ+hDKXJioaldXgjUkK642M4UwtBV8ob2xJNDd2ZhwLnoQdeXeGADbkpy
rqXRfboQnoZsG4q5WTP468SQvvG5
-----END CERTIFICATE-----`

// KVBackendFromEnv constructs the KVStore the directory is stored in, based on environment variables.
// Supported backends are "redis", "ddb" (DynamoDB), "badger" (embedded) and "memory" (non-persistent).
// It first checks the "KV_BACKEND" env var to determine which backend to use, then reads the
// backend-specific env vars. Defaults to BackendRedis if unspecified.
func KVBackendFromEnv(ctx context.Context, logger logrus.FieldLogger) (store ports.KVStore, err error) {
	backend := os.Getenv(KVBackendEnvKey)
	prefix := os.Getenv(KVKeyPrefixKey)
	switch backend {
	case BackendRedis, "":
		var redisClient *redis.Client
		redisClient, err = redisClientFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		store = redisbackend.NewKVStore(redisClient, prefix)

	case BackendDDB:
		var ddbClient *dynamodb.Client
		ddbClient, err = ddbClientFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		table := getenv(DDBTableKey, "dappdir")
		var ddbStore *ddb.KVStore
		ddbStore, err = ddb.NewKVStore(ctx, table, prefix, ddbClient)
		if err != nil {
			return nil, err
		}
		store = ddbStore

	case BackendBadger:
		var badgerStore *badgerbackend.KVStore
		badgerStore, err = badgerbackend.Open(getenv(BadgerPathKey, "./badger_data"), prefix, logger)
		if err != nil {
			return nil, err
		}
		store = badgerStore

	case BackendMemory:
		logger.Warn("Using the in-memory backend, records are lost on restart")
		store = memory.NewKVStore()

	default:
		return nil, types.Err(types.ErrInvalidBackend, nil, "unknown %s %q", KVBackendEnvKey, backend)
	}
	return
}

// AWSConfig loads the shared AWS configuration. A non-empty endpoint marks a local emulator
// (localstack, dynamodb-local): region and static credentials then fall back to test values so
// no real account is needed.
func AWSConfig(ctx context.Context, endpoint string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if endpoint != "" {
		opts = append(opts,
			config.WithRegion(getenv("AWS_REGION", "us-east-1")),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				getenv("AWS_ACCESS_KEY_ID", "test"),
				getenv("AWS_SECRET_ACCESS_KEY", "test"),
				"",
			)),
		)
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}
	return cfg, nil
}

func ddbClientFromEnv(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := AWSConfig(ctx, os.Getenv(DDBEndpointKey))
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// redisClientFromEnv dials and pings Redis so a bad address fails at startup, not on first request.
func redisClientFromEnv(ctx context.Context) (*redis.Client, error) {
	opts, err := redisOptionsFromEnv()
	if err != nil {
		return nil, err
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, types.Err(types.ErrDataStoreAccess, err, "ping redis at %s", opts.Addr)
	}
	return cli, nil
}

// redisEnv is the discrete REDIS_* configuration, used when REDIS_URL is unset.
type redisEnv struct {
	host, port string
	user, pass string
	tls        bool
	db         string
}

func loadRedisEnv() redisEnv {
	return redisEnv{
		host: getenv(RedisHost, "localhost"),
		port: getenv(RedisPort, "6379"),
		user: os.Getenv(RedisUser),
		pass: os.Getenv(RedisPass),
		tls:  parseBoolean(os.Getenv(RedisTLS)),
		db:   getenv(RedisDBNum, "0"),
	}
}

func (e redisEnv) options() (*redis.Options, error) {
	db, err := strconv.Atoi(e.db)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", RedisDBNum, e.db, err)
	}
	opts := &redis.Options{
		Addr:     net.JoinHostPort(e.host, e.port),
		Username: e.user,
		Password: e.pass,
		DB:       db,
	}
	if e.tls {
		// ElastiCache in-transit encryption chains to Amazon Root CA 1.
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(AmazonRootCA1PEM)) {
			return nil, fmt.Errorf("failed to load Amazon root CA")
		}
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, RootCAs: pool}
	}
	return opts, nil
}

func redisOptionsFromEnv() (*redis.Options, error) {
	if u := os.Getenv(RedisURL); u != "" {
		opts, err := redis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", RedisURL, err)
		}
		return opts, nil
	}
	return loadRedisEnv().options()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBoolean(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

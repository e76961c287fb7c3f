// Package config loads process settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type Role string

const (
	RoleAll       Role = "all"
	RoleGateway   Role = "gateway"
	RoleOrder     Role = "order"
	RoleInventory Role = "inventory"
	RoleWarehouse Role = "warehouse"
	RolePayment   Role = "payment"
	RoleFraud     Role = "fraud"
)

// Roles lists the services in call order.
var Roles = []Role{RoleGateway, RoleOrder, RoleInventory, RoleWarehouse, RolePayment, RoleFraud}

type StoreDriver string

const (
	StoreMemory   StoreDriver = "memory"
	StoreBolt     StoreDriver = "bolt"
	StorePostgres StoreDriver = "postgres"
)

// Service is where one role listens and how its callers reach it.
type Service struct {
	Addr string
	URL  string
}

type Config struct {
	Role        Role
	ServiceName string
	Env         string
	LogFile     string
	LogLevel    zapcore.Level

	Services map[Role]Service

	FraudPercentage    int
	NotFraudPercentage int
	FraudRetryAttempts int

	ChaosEnabled  bool
	ChaosMaxDelay time.Duration

	DownstreamTimeout time.Duration
	WarehouseLocation string

	StoreDriver StoreDriver
	BoltPath    string
	DatabaseURL string
	RedisAddr   string
	AMQPURL     string

	OTLPEndpoint string
}

var defaultPorts = map[Role]int{
	RoleGateway:   8080,
	RoleOrder:     8081,
	RoleInventory: 8082,
	RoleWarehouse: 8083,
	RolePayment:   8084,
	RoleFraud:     8085,
}

// Runs reports whether this process serves role.
func (c Config) Runs(role Role) bool {
	return c.Role == RoleAll || c.Role == role
}

// Load reads the environment. Every invalid value is reported in one joined error.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}

	cfg := Config{
		Role:               Role(strings.ToLower(e.str("SERVICE_ROLE", string(RoleAll)))),
		Env:                e.str("ENV", "dev"),
		LogFile:            e.str("LOG_FILE", ""),
		LogLevel:           e.level("LOG_LEVEL", zapcore.InfoLevel),
		Services:           make(map[Role]Service, len(Roles)),
		FraudPercentage:    e.integer("FRAUD_PERCENTAGE", 5),
		NotFraudPercentage: e.integer("NOT_FRAUD_PERCENTAGE", 95),
		FraudRetryAttempts: e.integer("FRAUD_RETRY_ATTEMPTS", 3),
		ChaosEnabled:       e.boolean("CHAOS_MONKEY_ENABLED", false),
		ChaosMaxDelay:      e.duration("CHAOS_MAX_DELAY", time.Second),
		DownstreamTimeout:  e.duration("DOWNSTREAM_TIMEOUT", 5*time.Second),
		WarehouseLocation:  e.str("WAREHOUSE_LOCATION", "Warehouse-A"),
		StoreDriver:        StoreDriver(strings.ToLower(e.str("STORE_DRIVER", string(StoreMemory)))),
		BoltPath:           e.str("BOLT_PATH", "data/minishop.db"),
		DatabaseURL:        e.str("DATABASE_URL", ""),
		RedisAddr:          e.str("REDIS_ADDR", ""),
		AMQPURL:            e.str("AMQP_URL", ""),
		OTLPEndpoint:       e.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
	cfg.ServiceName = e.str("SERVICE_NAME", "minishop-"+string(cfg.Role))

	if cfg.OTLPEndpoint == "" {
		if host := getenv("TEMPO_HOSTNAME"); host != "" {
			cfg.OTLPEndpoint = host + ":" + e.str("TEMPO_PORT", "4317")
		}
	}

	for _, role := range Roles {
		upper := strings.ToUpper(string(role))
		port := defaultPorts[role]
		cfg.Services[role] = Service{
			Addr: e.str(upper+"_ADDR", fmt.Sprintf(":%d", port)),
			URL:  strings.TrimRight(e.str(upper+"_SERVICE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		}
	}

	errs := e.errs
	if !validRole(cfg.Role) {
		errs = append(errs, fmt.Errorf("SERVICE_ROLE: unknown role %q", cfg.Role))
	}
	switch cfg.StoreDriver {
	case StoreMemory, StoreBolt:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL: required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}
	if cfg.FraudPercentage < 0 || cfg.NotFraudPercentage < 0 || cfg.FraudPercentage+cfg.NotFraudPercentage == 0 {
		errs = append(errs, errors.New("FRAUD_PERCENTAGE/NOT_FRAUD_PERCENTAGE: must be non-negative and not both zero"))
	}
	if cfg.FraudRetryAttempts < 1 {
		errs = append(errs, errors.New("FRAUD_RETRY_ATTEMPTS: must be at least 1"))
	}
	if cfg.DownstreamTimeout <= 0 {
		errs = append(errs, errors.New("DOWNSTREAM_TIMEOUT: must be positive"))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// HopTimeout is the budget for a call into peer. Leaf services get DownstreamTimeout; each caller
// gets enough to cover its own downstream calls plus one more hop, so an outer deadline never
// expires before the inner one it is waiting on.
func (c Config) HopTimeout(peer Role) time.Duration {
	base := c.DownstreamTimeout
	attempts := max(c.FraudRetryAttempts, 1)
	switch peer {
	case RoleInventory:
		return 2 * base
	case RolePayment:
		return time.Duration(attempts+1) * base
	case RoleOrder:
		return max(c.HopTimeout(RoleInventory), c.HopTimeout(RolePayment)) + base
	default:
		return base
	}
}

func validRole(r Role) bool {
	if r == RoleAll {
		return true
	}
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// env collects parse errors instead of failing on the first one.
type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) boolean(key string, def bool) bool {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// duration accepts Go durations ("750ms") or a bare number of seconds.
func (e *env) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *env) level(key string, def zapcore.Level) zapcore.Level {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	l, err := zapcore.ParseLevel(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return l
}

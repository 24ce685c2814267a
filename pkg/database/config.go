package database

import "time"

// NewConfig builds a database.Config from already-resolved values. Env var
// and YAML resolution lives in pkg/config; this package only knows how to
// connect, migrate, and report health once those values are known.
func NewConfig(host string, port int, user, password, dbName, sslMode string, maxOpen, maxIdle int, connMaxLifetime, connMaxIdleTime time.Duration) Config {
	return Config{
		Host:            host,
		Port:            port,
		User:            user,
		Password:        password,
		Database:        dbName,
		SSLMode:         sslMode,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: connMaxLifetime,
		ConnMaxIdleTime: connMaxIdleTime,
	}
}

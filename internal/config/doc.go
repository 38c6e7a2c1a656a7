// Package config manages application configuration for the Shiftboard API.
//
// Configuration comes from environment variables. A .env file, when present,
// is loaded first with godotenv; variables already set in the environment
// take precedence over the file.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP port, timeouts, CORS origins, rate limits
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: RS256 key paths and token lifetimes
//   - RedisConfig: optional Redis for distributed job locks
//   - JobsConfig: background job intervals and worker counts
//   - SchedulingConfig: timezone, known locations, minor age, generation horizon
//
// # Environment Variables
//
//	SERVER_PORT            - HTTP server port (default: 8080)
//	DB_HOST, DB_PORT       - SurrealDB address
//	DB_NAMESPACE           - SurrealDB namespace (default: shiftboard)
//	JWT_PRIVATE_KEY_PATH   - PEM private key for signing
//	REDIS_URL              - redis://host:6379/0, empty for in-process locks
//	TIMEZONE               - IANA zone used for weekday matching (default: UTC)
//	LOCATIONS              - comma separated list of allowed shift locations
//	MINOR_AGE              - age below which parental consent is required (default: 16)
//	REGULAR_HORIZON_DAYS   - days ahead regular signups are generated (default: 28)
package config

package database

// Config holds Postgres connection settings used by Connect and RunMigrations.
type Config struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConnections int
}

package store

// Dialect selects the SQL flavor and the driver of the database.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// schema holds the statements that create the professionals table, per dialect. Email and phone
// are nullable and unique; NULL values never collide with each other. MySQL compares the email
// with a binary collation so that it stays case-sensitive as stored.
var schema = map[Dialect][]string{
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS professionals (
			id           BIGINT       NOT NULL AUTO_INCREMENT,
			full_name    VARCHAR(255) NOT NULL,
			email        VARCHAR(254) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NULL,
			phone        VARCHAR(20)  NULL,
			company_name VARCHAR(255) NOT NULL DEFAULT '',
			job_title    VARCHAR(255) NOT NULL DEFAULT '',
			source       VARCHAR(10)  NOT NULL,
			created_at   DATETIME(6)  NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY professionals_email (email),
			UNIQUE KEY professionals_phone (phone),
			KEY professionals_source (source),
			KEY professionals_created_at (created_at)
		)`,
	},
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS professionals (
			id           INTEGER  PRIMARY KEY AUTOINCREMENT,
			full_name    TEXT     NOT NULL,
			email        TEXT     NULL UNIQUE,
			phone        TEXT     NULL UNIQUE,
			company_name TEXT     NOT NULL DEFAULT '',
			job_title    TEXT     NOT NULL DEFAULT '',
			source       TEXT     NOT NULL CHECK (source IN ('direct', 'partner', 'internal')),
			created_at   DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS professionals_source ON professionals (source)`,
		`CREATE INDEX IF NOT EXISTS professionals_created_at ON professionals (created_at)`,
	},
}

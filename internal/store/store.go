// Package store persists professionals in a relational database. The same code serves MySQL in
// production and SQLite for local development and tests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/professionals-service/internal/model"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// mysqlDuplicateEntry is the MySQL server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// columns is the column list of every select statement.
const columns = "id, full_name, email, phone, company_name, job_title, source, created_at"

// ErrNotFound is returned when a requested professional does not exist.
var ErrNotFound = errors.New("professional not found")

// ErrDuplicate matches every UniqueViolationError via errors.Is.
var ErrDuplicate = errors.New("duplicate value")

// UniqueViolationError reports that a write was rejected by the unique index on Field.
type UniqueViolationError struct {
	Field string
	Err   error
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("duplicate value for %s: %v", e.Field, e.Err)
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

func (e *UniqueViolationError) Is(target error) bool {
	return target == ErrDuplicate
}

func init() {
	// modernc's driver name is unknown to sqlx; it uses '?' placeholders like sqlite3.
	sqlx.BindDriver(string(DialectSQLite), sqlx.QUESTION)
}

// Store is a handle to the professionals table.
type Store struct {
	db  *sqlx.DB
	now func() time.Time

	// Prepared statements offer a significant speed increase if executed many times.
	insert        *sqlx.NamedStmt
	update        *sqlx.NamedStmt
	selectByID    *sqlx.Stmt
	selectByEmail *sqlx.Stmt
	selectByPhone *sqlx.Stmt
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the function that provides creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens a database connection for the given dialect. An in-memory SQLite database is
// restricted to one connection because every connection would otherwise see its own database.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	return sqlDB, nil
}

// New wraps the specified sql database and prepares all statements. The database argument can
// be a real database for production use or a mock database within unit tests. The schema must
// exist before New is called, see CreateSchema.
func New(sqlDB *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	s := &Store{
		db:  sqlx.NewDb(sqlDB, string(dialect)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	s.insert, err = s.db.PrepareNamed(`
		INSERT INTO professionals (full_name, email, phone, company_name, job_title, source, created_at)
		VALUES (:full_name, :email, :phone, :company_name, :job_title, :source, :created_at)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.update, err = s.db.PrepareNamed(`
		UPDATE professionals
		SET full_name = :full_name, email = :email, phone = :phone,
			company_name = :company_name, job_title = :job_title, source = :source
		WHERE id = :id
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare update: %w", err)
	}
	s.selectByID, err = s.db.Preparex(`SELECT ` + columns + ` FROM professionals WHERE id = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by id: %w", err)
	}
	s.selectByEmail, err = s.db.Preparex(`SELECT ` + columns + ` FROM professionals WHERE email = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by email: %w", err)
	}
	s.selectByPhone, err = s.db.Preparex(`SELECT ` + columns + ` FROM professionals WHERE phone = ?`)
	if err != nil {
		return nil, fmt.Errorf("prepare select by phone: %w", err)
	}
	return s, nil
}

// Connect opens the database, creates the schema if migrate is set, and returns a ready Store.
func Connect(ctx context.Context, dialect Dialect, dsn string, migrate bool, opts ...Option) (*Store, error) {
	sqlDB, err := Open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connect to %s database: %w", dialect, err)
	}
	if migrate {
		if err := CreateSchema(ctx, sqlDB, dialect); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}
	s, err := New(sqlDB, dialect, opts...)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// CreateSchema creates the professionals table and its indexes if they do not exist yet.
func CreateSchema(ctx context.Context, sqlDB *sql.DB, dialect Dialect) error {
	statements, ok := schema[dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", dialect)
	}
	for _, stmt := range statements {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close releases the prepared statements and the database handle.
func (s *Store) Close() error {
	for _, stmt := range []interface{ Close() error }{s.insert, s.update, s.selectByID, s.selectByEmail, s.selectByPhone} {
		_ = stmt.Close()
	}
	return s.db.Close()
}

// Create inserts p and fills in the assigned Id and CreatedAt. A unique index violation is
// returned as *UniqueViolationError.
func (s *Store) Create(ctx context.Context, p *model.Professional) error {
	row := *p
	row.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	result, err := s.insert.ExecContext(ctx, &row)
	if err != nil {
		return translate(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}
	row.Id = id
	*p = row
	return nil
}

// Update writes all mutable columns of p. The creation timestamp is never changed.
func (s *Store) Update(ctx context.Context, p *model.Professional) error {
	result, err := s.update.ExecContext(ctx, p)
	if err != nil {
		return translate(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// MySQL reports zero affected rows when nothing changed, so check that the row exists.
		if _, err := s.FindByID(ctx, p.Id); err != nil {
			return err
		}
	}
	return nil
}

// FindByID returns the professional with the given id or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id int64) (*model.Professional, error) {
	return s.findOne(ctx, s.selectByID, id)
}

// FindByEmail returns the professional with exactly this email or ErrNotFound.
func (s *Store) FindByEmail(ctx context.Context, email string) (*model.Professional, error) {
	return s.findOne(ctx, s.selectByEmail, email)
}

// FindByPhone returns the professional with exactly this phone or ErrNotFound.
func (s *Store) FindByPhone(ctx context.Context, phone string) (*model.Professional, error) {
	return s.findOne(ctx, s.selectByPhone, phone)
}

func (s *Store) findOne(ctx context.Context, stmt *sqlx.Stmt, arg interface{}) (*model.Professional, error) {
	var professionals []model.Professional
	if err := stmt.SelectContext(ctx, &professionals, arg); err != nil {
		return nil, err
	}
	if len(professionals) == 0 {
		return nil, ErrNotFound
	}
	return &professionals[0], nil
}

// List returns all professionals, newest first. If source is not nil, only professionals with
// exactly that source are returned. The result is never nil.
func (s *Store) List(ctx context.Context, source *model.Source) ([]model.Professional, error) {
	query := `SELECT ` + columns + ` FROM professionals`
	var args []interface{}
	if source != nil {
		query += ` WHERE source = ?`
		args = append(args, *source)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	professionals := []model.Professional{}
	if err := s.db.SelectContext(ctx, &professionals, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return professionals, nil
}

// translate turns driver specific unique key violations into *UniqueViolationError.
func translate(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return &UniqueViolationError{Field: fieldFromMessage(mysqlErr.Message, "for key "), Err: err}
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && isSQLiteUniqueViolation(sqliteErr) {
		return &UniqueViolationError{Field: fieldFromMessage(sqliteErr.Error(), "failed: "), Err: err}
	}
	return err
}

// isSQLiteUniqueViolation accepts the extended result code as well as the primary one, in case
// extended codes are switched off for the connection.
func isSQLiteUniqueViolation(err *sqlite.Error) bool {
	if err.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE")
}

// fieldFromMessage finds the violated column in a driver message. Only the part after marker is
// inspected because the part before it may contain the offending value.
//
//	MySQL:  Duplicate entry 'x' for key 'professionals.professionals_email'
//	SQLite: UNIQUE constraint failed: professionals.phone
func fieldFromMessage(message string, marker string) string {
	if i := strings.LastIndex(message, marker); i >= 0 {
		message = message[i+len(marker):]
	}
	switch {
	case strings.Contains(message, model.FieldEmail):
		return model.FieldEmail
	case strings.Contains(message, model.FieldPhone):
		return model.FieldPhone
	}
	return model.FormErrorsKey
}

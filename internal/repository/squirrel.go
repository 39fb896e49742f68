package repository

import sq "github.com/Masterminds/squirrel"

// psql is the shared Squirrel statement builder configured for PostgreSQL dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// sqlite is the Squirrel statement builder for SQLite question-mark placeholders.
var sqlite = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// entryColumns is the shared list of columns for cache entry queries.
var entryColumns = []string{"request_url", "status", "headers", "body", "stored_at"}

// Package database persists analysis runs to SQLite so past desync
// reports can be reviewed without re-running the comparison. Storage is
// optional; the analyze command only opens it when a database directory
// is configured.
package database

package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// UniqueViolation は一意制約違反であれば制約名を返す。
// SQLiteは制約名を報告しないため、PostgreSQLと同じ命名規則で
// "<table>_<column>[_<column>]_key"（主キーは "<table>_pkey"）に正規化する。
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == pqUniqueViolation {
			return pqErr.Constraint, true
		}
		return "", false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			table, columns, ok := parseSQLiteUniqueMessage(sqliteErr.Error())
			if !ok {
				return "", true
			}
			return table + "_" + strings.Join(columns, "_") + "_key", true
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			table, _, ok := parseSQLiteUniqueMessage(sqliteErr.Error())
			if !ok {
				return "", true
			}
			return table + "_pkey", true
		}
	}

	return "", false
}

// IsForeignKeyViolation は外部キー制約違反かを判定する。
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqForeignKeyViolation
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}

	return false
}

// parseSQLiteUniqueMessage は "UNIQUE constraint failed: likes.message_id, likes.user_id"
// からテーブル名とカラム名を取り出す。
func parseSQLiteUniqueMessage(msg string) (string, []string, bool) {
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return "", nil, false
	}
	rest := msg[i+len(marker):]
	if j := strings.Index(rest, " ("); j >= 0 {
		rest = rest[:j]
	}

	var (
		table   string
		columns []string
	)
	for _, qualified := range strings.Split(rest, ", ") {
		t, c, ok := strings.Cut(strings.TrimSpace(qualified), ".")
		if !ok {
			return "", nil, false
		}
		table = t
		columns = append(columns, c)
	}
	return table, columns, table != ""
}

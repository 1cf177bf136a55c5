package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMigratedSQLite(t *testing.T) *sql.DB {
	t.Helper()
	dbURL := setupSQLite(t)
	require.NoError(t, RunMigrations(dbURL))

	db, err := Open(dbURL, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertUser(db *sql.DB, id, username, email string) error {
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO users (id, username, email, password_hash, bio, created_at, updated_at)
		 VALUES ($1, $2, $3, 'x', '', $4, $4)`,
		id, username, email, now,
	)
	return err
}

func TestUniqueViolation_SQLite(t *testing.T) {
	db := openMigratedSQLite(t)

	require.NoError(t, insertUser(db, "u1", "alice", "alice@example.com"))

	err := insertUser(db, "u2", "alice", "other@example.com")
	name, ok := UniqueViolation(err)
	require.True(t, ok, "err = %v", err)
	assert.Equal(t, "users_username_key", name)

	err = insertUser(db, "u3", "bob", "alice@example.com")
	name, ok = UniqueViolation(err)
	require.True(t, ok, "err = %v", err)
	assert.Equal(t, "users_email_key", name)

	err = insertUser(db, "u1", "carol", "carol@example.com")
	name, ok = UniqueViolation(err)
	require.True(t, ok, "err = %v", err)
	assert.Equal(t, "users_pkey", name)
}

func TestUniqueViolation_SQLiteCompositeKey(t *testing.T) {
	db := openMigratedSQLite(t)
	now := time.Now().UTC()

	require.NoError(t, insertUser(db, "u1", "alice", "alice@example.com"))
	_, err := db.Exec(`INSERT INTO messages (id, author_id, message, created_at) VALUES ('m1', 'u1', 'hi', $1)`, now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO likes (id, message_id, user_id, created_at) VALUES ('l1', 'm1', 'u1', $1)`, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO likes (id, message_id, user_id, created_at) VALUES ('l2', 'm1', 'u1', $1)`, now)

	name, ok := UniqueViolation(err)
	require.True(t, ok, "err = %v", err)
	assert.Equal(t, "likes_message_id_user_id_key", name)
}

func TestIsForeignKeyViolation_SQLite(t *testing.T) {
	db := openMigratedSQLite(t)

	_, err := db.Exec(
		`INSERT INTO messages (id, author_id, message, created_at) VALUES ('m1', 'nobody', 'hi', $1)`,
		time.Now().UTC(),
	)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), "err = %v", err)

	_, ok := UniqueViolation(err)
	assert.False(t, ok)
}

func TestConstraintHelpers_Postgres(t *testing.T) {
	uniqueErr := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	wrapped := fmt.Errorf("failed to create user: %w", uniqueErr)

	name, ok := UniqueViolation(wrapped)
	require.True(t, ok)
	assert.Equal(t, "users_email_key", name)
	assert.False(t, IsForeignKeyViolation(wrapped))

	fkErr := &pq.Error{Code: "23503", Constraint: "messages_author_id_fkey"}
	assert.True(t, IsForeignKeyViolation(fkErr))
	_, ok = UniqueViolation(fkErr)
	assert.False(t, ok)
}

func TestConstraintHelpers_OtherErrors(t *testing.T) {
	for _, err := range []error{nil, errors.New("boom"), sql.ErrNoRows} {
		_, ok := UniqueViolation(err)
		assert.False(t, ok)
		assert.False(t, IsForeignKeyViolation(err))
	}
}

func TestParseSQLiteUniqueMessage(t *testing.T) {
	table, cols, ok := parseSQLiteUniqueMessage("constraint failed: UNIQUE constraint failed: likes.message_id, likes.user_id (2067)")
	require.True(t, ok)
	assert.Equal(t, "likes", table)
	assert.Equal(t, []string{"message_id", "user_id"}, cols)

	_, _, ok = parseSQLiteUniqueMessage("constraint failed: NOT NULL constraint failed (1299)")
	assert.False(t, ok)
}

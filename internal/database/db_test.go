package database

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "connecthub"}.DSN()

	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/connecthub?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "multiStatements=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestSchemaEnforcesUniquePairs(t *testing.T) {
	s := Schema()
	for _, want := range []string{
		"UNIQUE KEY uq_users_username (username)",
		"UNIQUE KEY uq_users_email (email)",
		"UNIQUE KEY uq_likes_post_user (post_id, user_id)",
		"UNIQUE KEY uq_ratings_post_user (post_id, user_id)",
		"REFERENCES posts (post_id) ON DELETE CASCADE",
	} {
		assert.Contains(t, s, want)
	}
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

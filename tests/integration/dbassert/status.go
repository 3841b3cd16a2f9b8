//go:build integration

// Package dbassert reads status records straight from the database so tests
// can confirm what the API reported was actually persisted.
package dbassert

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// StatusRow is a status record as stored.
type StatusRow struct {
	ID         string    `bson:"_id"`
	ClientName string    `bson:"client_name"`
	Timestamp  time.Time `bson:"timestamp"`
}

// PostgresStatusByID loads one record from the status_checks table.
func PostgresStatusByID(t *testing.T, pool *pgxpool.Pool, id string) StatusRow {
	t.Helper()

	var row StatusRow
	err := pool.QueryRow(context.Background(),
		`SELECT id::text, client_name, timestamp FROM status_checks WHERE id = $1`, id,
	).Scan(&row.ID, &row.ClientName, &row.Timestamp)
	require.NoError(t, err, "status record %s not found in PostgreSQL", id)
	return row
}

// MongoStatusByID loads one record from the status_checks collection.
func MongoStatusByID(t *testing.T, db *mongo.Database, id string) StatusRow {
	t.Helper()

	var row StatusRow
	err := db.Collection("status_checks").FindOne(context.Background(), bson.D{{Key: "_id", Value: id}}).Decode(&row)
	require.NoError(t, err, "status record %s not found in MongoDB", id)
	return row
}

// AssertStatusRow checks the stored record against what the API returned.
func AssertStatusRow(t *testing.T, row StatusRow, clientName string, created time.Time) {
	t.Helper()

	assert.NotEmpty(t, row.ID)
	assert.Equal(t, clientName, row.ClientName)
	// MongoDB keeps millisecond precision.
	assert.WithinDuration(t, created, row.Timestamp, time.Millisecond)
}

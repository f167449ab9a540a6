//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"moviecatalog/internal/adapter/postgres"
	"moviecatalog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *postgres.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "catalog",
				"POSTGRES_PASSWORD": "catalog",
				"POSTGRES_DB":       "catalog",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://catalog:catalog@%s:%s/catalog?sslmode=disable", host, port.Port())
	db, err := postgres.Open(ctx, dsn, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestIntegration_Users(t *testing.T) {
	db := setupPostgres(t)
	users := db.Users()
	ctx := context.Background()

	u, err := users.Create(ctx, domain.NewUser{Username: "alice", Email: "a@b.com", PasswordHash: "hash"})
	require.NoError(t, err)

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "a@b.com", got.Email)

	_, err = users.Create(ctx, domain.NewUser{Username: "bob", Email: "a@b.com"})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email", ce.Field)

	none, err := users.GetByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestIntegration_Movies(t *testing.T) {
	db := setupPostgres(t)
	movies := db.Movies()
	ctx := context.Background()

	var ids []string
	for i := 1; i <= 10; i++ {
		m, err := movies.Create(ctx, domain.MovieFields{
			Title:          fmt.Sprintf("Movie %d", i),
			PublishingYear: 1990 + i,
			Poster:         "https://example.com/p.jpg",
		})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	total, err := movies.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)

	page, err := movies.List(ctx, 8, 8)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Movie 9", page[0].Title)

	year := 2001
	updated, err := movies.Update(ctx, ids[1], domain.MovieChanges{PublishingYear: &year})
	require.NoError(t, err)
	assert.Equal(t, 2001, updated.PublishingYear)
	assert.Equal(t, "Movie 2", updated.Title)

	require.NoError(t, movies.Delete(ctx, ids[1]))
	assert.ErrorIs(t, movies.Delete(ctx, ids[1]), domain.ErrNotFound)
	_, err = movies.Update(ctx, ids[1], domain.MovieChanges{PublishingYear: &year})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

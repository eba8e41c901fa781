package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/database"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := database.Open(database.Config{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewSQLStore(db)
}

func newRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test")
}

func backends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLiteStore,
		"redis":  newRedisStore,
	}
}

func TestStoreContract(t *testing.T) {
	for name, build := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := build(t)

			empty, err := s.IsEmpty(ctx, CollectionItems)
			require.NoError(t, err)
			assert.True(t, empty)

			id1, err := s.Add(ctx, CollectionItems, map[string]any{
				"name": "Camisa", "category": "hombres", "sizes": []string{"S", "M"},
			})
			require.NoError(t, err)
			require.NotEmpty(t, id1)

			id2, err := s.Add(ctx, CollectionItems, map[string]any{
				"name": "Polera", "category": "ninos",
			})
			require.NoError(t, err)
			assert.NotEqual(t, id1, id2)

			empty, err = s.IsEmpty(ctx, CollectionItems)
			require.NoError(t, err)
			assert.False(t, empty)

			all, err := s.GetAll(ctx, CollectionItems)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, id1, all[0].ID, "insertion order")
			assert.Equal(t, []any{"S", "M"}, all[0].Fields["sizes"])

			// merge keeps untouched fields
			require.NoError(t, s.Set(ctx, CollectionItems, id1, map[string]any{"colors": []string{"red"}}, true))
			doc, err := s.Get(ctx, CollectionItems, id1)
			require.NoError(t, err)
			require.NotNil(t, doc)
			assert.Equal(t, "Camisa", doc.Fields["name"])
			assert.Equal(t, []any{"red"}, doc.Fields["colors"])

			// replace drops them
			require.NoError(t, s.Set(ctx, CollectionItems, id1, map[string]any{"name": "Nueva"}, false))
			doc, err = s.Get(ctx, CollectionItems, id1)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"name": "Nueva"}, doc.Fields)

			// set on a fixed id creates the document
			require.NoError(t, s.Set(ctx, CollectionCategories, "hombres", map[string]any{"name": "Hombres"}, false))
			doc, err = s.Get(ctx, CollectionCategories, "hombres")
			require.NoError(t, err)
			require.NotNil(t, doc)

			matches, err := s.Where(ctx, CollectionItems, "category", "ninos")
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, id2, matches[0].ID)

			require.NoError(t, s.Delete(ctx, CollectionItems, id2))
			require.NoError(t, s.Delete(ctx, CollectionItems, "missing"))
			doc, err = s.Get(ctx, CollectionItems, id2)
			require.NoError(t, err)
			assert.Nil(t, doc)

			all, err = s.GetAll(ctx, CollectionItems)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestSQLStore_FailuresAreStoreErrors(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	s := NewSQLStore(sqlx.NewDb(mockDB, "sqlite3"))
	boom := errors.New("connection reset")

	mock.ExpectQuery("SELECT COUNT").WithArgs(CollectionItems).WillReturnError(boom)
	_, err = s.IsEmpty(context.Background(), CollectionItems)
	require.Error(t, err)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "isEmpty", se.Op)
	assert.ErrorIs(t, err, boom)

	mock.ExpectExec("DELETE FROM documents").WithArgs(CollectionItems, "p1").WillReturnError(boom)
	err = s.Delete(context.Background(), CollectionItems, "p1")
	assert.True(t, IsStoreError(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounting(t *testing.T) {
	ctx := context.Background()
	c := NewCounting(NewMemoryStore())

	_, _ = c.IsEmpty(ctx, CollectionItems)
	_, _ = c.Add(ctx, CollectionItems, map[string]any{"name": "x"})
	_ = c.Set(ctx, CollectionCategories, "a", nil, false)

	assert.Equal(t, 1, c.Count("IsEmpty"))
	assert.Equal(t, 2, c.Writes())
	c.Reset()
	assert.Equal(t, 0, c.Writes())
}

func TestOpenMemory(t *testing.T) {
	s, closeFn, err := Open(context.Background(), Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, closeFn())

	_, _, err = Open(context.Background(), Config{Driver: DriverRedis})
	assert.Error(t, err)
}

func TestOpenHonoursSQLDriver(t *testing.T) {
	sqlite := database.Config{Driver: database.DriverSQLite, Path: ":memory:"}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"sqlite", Config{Driver: database.DriverSQLite, Database: sqlite}, ""},
		{"postgres without dsn", Config{Driver: database.DriverPostgres, Database: sqlite}, "dsn is required"},
		{"sqlite without path", Config{Driver: database.DriverSQLite, Database: database.Config{Driver: database.DriverPostgres, DSN: "postgres://u@h/db"}}, "path is required"},
		{"unknown driver", Config{Driver: "bogus", Database: sqlite}, `unsupported store driver "bogus"`},
		{"empty driver", Config{Database: sqlite}, "unsupported store driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, closeFn, err := Open(context.Background(), tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, &SQLStore{}, s)
			assert.NoError(t, closeFn())
		})
	}
}

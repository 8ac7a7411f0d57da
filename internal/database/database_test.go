package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{"players", "matches", "ledger_entries"} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "Querying for %s table should not produce an error", table)
		assert.Equal(t, table, name)
	}
}

func TestInitDB_VersionColumns(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec(`INSERT INTO players (id, name, created_at) VALUES ('p1', 'Ann', 0)`)
	require.NoError(t, err)

	var version int64
	var rating float64
	err = db.QueryRow(`SELECT version, rating FROM players WHERE id = 'p1'`).Scan(&version, &rating)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
	assert.Equal(t, 1000.0, rating)
}

func TestInitDB_ForeignKeys(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec(`INSERT INTO ledger_entries (player_id, match_id, created_at, won) VALUES ('ghost', 'none', 0, 1)`)
	assert.Error(t, err, "entries must reference existing players and matches")
}

func TestInitDB_NamesAreCaseInsensitive(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec(`INSERT INTO players (id, name, created_at) VALUES ('p1', 'Wesley', 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO players (id, name, created_at) VALUES ('p2', 'wesley', 0)`)
	assert.Error(t, err)
}

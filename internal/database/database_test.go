package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{"threads", "match_requests", "matches"} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "Querying for %s table should not produce an error", table)
		assert.Equal(t, table, name, "The '%s' table should be created", table)
	}
}

func TestInitDB_AcceptedRequestIsUniquePerThread(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec(`INSERT INTO threads (id, participant_a, participant_b, skill_id, status, last_activity_at, created_at, updated_at)
		VALUES ('t1', 'a', 'b', 's', 'ACTIVE', 0, 0, 0)`)
	require.NoError(t, err)

	insert := `INSERT INTO match_requests (id, thread_id, requester_id, target_user_id, offering_user_id, skill_id, round, status, message, created_at, updated_at)
		VALUES (?, 't1', 'a', 'b', 'b', 's', ?, 'ACCEPTED', 'hello there', 0, 0)`
	_, err = db.Exec(insert, "r1", 1)
	require.NoError(t, err)
	_, err = db.Exec(insert, "r2", 2)
	assert.Error(t, err, "a second accepted request in the same thread must violate the unique index")
}

func TestInitDB_OneLiveThreadPerPairAndSkill(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	insert := `INSERT INTO threads (id, participant_a, participant_b, skill_id, status, last_activity_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'ACTIVE', 0, 0, 0)`
	_, err = db.Exec(insert, "t1", "a", "b", "s")
	require.NoError(t, err)

	_, err = db.Exec(insert, "t2", "b", "a", "s")
	assert.Error(t, err, "the pair is unordered")

	_, err = db.Exec(insert, "t3", "a", "b", "other")
	assert.NoError(t, err, "another skill is another negotiation")

	_, err = db.Exec(`UPDATE threads SET deleted_at = 1 WHERE id = 't1'`)
	require.NoError(t, err)
	_, err = db.Exec(insert, "t4", "b", "a", "s")
	assert.NoError(t, err, "deleted threads do not count")
}

func TestInitDB_SharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")

	first, teardownFirst, err := InitDB(path, "", "")
	require.NoError(t, err)
	defer teardownFirst()
	second, teardownSecond, err := InitDB(path, "", "")
	require.NoError(t, err, "a second instance migrates the same file")
	defer teardownSecond()

	_, err = first.Exec(`INSERT INTO threads (id, participant_a, participant_b, skill_id, status, last_activity_at, created_at, updated_at)
		VALUES ('t1', 'a', 'b', 's', 'ACTIVE', 0, 0, 0)`)
	require.NoError(t, err)

	var count int
	require.NoError(t, second.QueryRow(`SELECT COUNT(*) FROM threads`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestInitDB_IsIdempotent(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	// Running the migrations again against the same connection is a no-op.
	require.NoError(t, migrate(db, "sqlite3"))
}

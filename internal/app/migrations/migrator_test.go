package migrations

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_SortsSQLFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/002_b.sql":   {Data: []byte("SELECT 2;")},
		"sql/001_a.sql":   {Data: []byte("SELECT 1;")},
		"sql/README.md":   {Data: []byte("docs")},
		"sql/010_c.sql":   {Data: []byte("SELECT 10;")},
		"other/003_x.sql": {Data: []byte("SELECT 3;")},
	}

	files, err := Pending(fsys, "sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"sql/001_a.sql", "sql/002_b.sql", "sql/010_c.sql"}, files)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "001", Version("sql/001_init.sql"))
	assert.Equal(t, "002", Version("002_student_exams.sql"))
}

func TestEmbeddedMigrationsDeclareParticipationScopes(t *testing.T) {
	files, err := Pending(Files, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var all string
	for _, f := range files {
		data, err := fs.ReadFile(Files, f)
		require.NoError(t, err)
		all += string(data)
	}
	assert.Contains(t, all, "uq_participation_exercise_student\n")
	assert.Contains(t, all, "uq_participation_exercise_student_exam")
	assert.Contains(t, all, "repository_lock_pending")
}

func TestEmbeddedMigrationsRestrictExerciseKinds(t *testing.T) {
	data, err := fs.ReadFile(Files, "sql/003_exercise_kinds.sql")
	require.NoError(t, err)

	sql := string(data)
	assert.Contains(t, sql, "chk_exercises_kind")
	assert.Contains(t, sql, "chk_submissions_kind")
	for _, kind := range []string{"QUIZ", "TEXT", "MODELING", "FILE_UPLOAD", "PROGRAMMING"} {
		assert.Contains(t, sql, "'"+kind+"'")
	}
}

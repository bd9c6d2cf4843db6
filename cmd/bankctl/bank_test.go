package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqlQuestionYAML = `
- questionId: sql_e1
  trackId: sql_core_v1
  prompt: Which clause filters grouped rows?
  questionType: mcq
  difficulty: easy
  subskill: data_structures
  options: [WHERE, HAVING]
  answerKey: HAVING
`

func TestValidateCommandPrintsCounts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sql.yaml"), []byte(sqlQuestionYAML), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", dir})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "sql_core_v1")
	assert.Contains(t, out.String(), "1 questions")
}

func TestValidateCommandRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(`
- questionId: x1
  trackId: cobol_v1
  prompt: nope
  questionType: mcq
  difficulty: easy
  subskill: algorithms
  answerKey: A
`), 0o600))

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"validate", dir})
	assert.Error(t, rootCmd.Execute())
}

func TestImportCommandClearsPoolCache(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("itembank:pool:sql_core_v1:easy", "[]"))
	require.NoError(t, mr.Set("session:lock:sess_1", "token"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sql.yaml"), []byte(sqlQuestionYAML), 0o600))
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "bank.db"))
	t.Setenv("REDIS_ADDR", mr.Addr())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"import", "--env=", dir})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "imported 1 questions")
	assert.Contains(t, out.String(), "cleared 1 cached pools")
	assert.False(t, mr.Exists("itembank:pool:sql_core_v1:easy"))
	assert.True(t, mr.Exists("session:lock:sess_1"))
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func useTempDB(t *testing.T) {
	t.Helper()
	t.Setenv("DIETCOACH_DATABASE_DSN", filepath.Join(t.TempDir(), "coach.db"))
	t.Setenv("DIETCOACH_LOG_LEVEL", "error")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "diet-coach version")
}

func TestConfigMasksKey(t *testing.T) {
	t.Setenv("DIETCOACH_LLM_API_KEY", "sk-live-123")
	out, err := run(t, "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-live-123")
	assert.Contains(t, out, "provider: openai")
}

func TestProfileAndHistory(t *testing.T) {
	useTempDB(t)

	out, err := run(t, "profile", "set", "--user", "kim", "--target", "1800", "--persona", "strict")
	require.NoError(t, err)
	assert.Contains(t, out, "프로필을 저장했습니다.")

	out, err = run(t, "profile", "--user", "kim")
	require.NoError(t, err)
	assert.Contains(t, out, "목표: 1800kcal")
	assert.Contains(t, out, "(strict)")

	out, err = run(t, "history", "--user", "kim")
	require.NoError(t, err)
	assert.Contains(t, out, "대화 기록이 없습니다.")

	out, err = run(t, "history", "clear", "--user", "kim")
	require.NoError(t, err)
	assert.Contains(t, out, "0개의 메시지를 삭제했습니다.")
}

func TestProfileWeigh(t *testing.T) {
	useTempDB(t)

	out, err := run(t, "profile", "weigh", "--user", "lee", "--kg", "70.4")
	require.NoError(t, err)
	assert.Contains(t, out, "체중 70.4kg을 기록했습니다.")

	out, err = run(t, "profile", "--user", "lee")
	require.NoError(t, err)
	assert.Contains(t, out, "최근 7일 체중: 기록 부족")

	weighInKg = 0
	_, err = run(t, "profile", "weigh", "--user", "lee")
	assert.Error(t, err)
}

func TestProfileSet_RejectsUnknownPersona(t *testing.T) {
	useTempDB(t)
	_, err := run(t, "profile", "set", "--user", "kim", "--persona", "grumpy")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
keywords: ["golang"]
city_codes: ["101010100"]
say_hi: "您好，我对这个岗位很感兴趣。"
expected_salary: [8, 25]
blacklist:
  companies: ["外包"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg := Load(path)

	assert.Equal(t, []string{"golang"}, cfg.Keywords)
	assert.Equal(t, []int{8, 25}, cfg.ExpectedSalary)
	assert.Equal(t, []string{"外包"}, cfg.Blacklist.Companies)
	assert.Equal(t, 100, cfg.DailyCap)
	assert.Equal(t, 3, cfg.DelayMinSeconds)
	assert.Equal(t, 20, cfg.DelayMaxSeconds)
	assert.Equal(t, 5, cfg.MaxConsecutiveFailures)
	assert.Equal(t, "file", cfg.LedgerBackend)
	assert.NotEmpty(t, cfg.DeadStatus)
}

func TestSalaryBandValidation(t *testing.T) {
	assert.NoError(t, salaryBandError(nil))
	assert.NoError(t, salaryBandError([]int{8}))
	assert.NoError(t, salaryBandError([]int{8, 25}))
	assert.Error(t, salaryBandError([]int{25, 8}), "inverted band must be rejected")
	assert.Error(t, salaryBandError([]int{8, 25, 40}))
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
keywords: ["golang"]
city_codes: ["101010100"]
say_hi: "您好"
telegram_token: "from-yaml"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")

	cfg := Load(path)

	assert.Equal(t, "from-env", cfg.TelegramToken)
	assert.Equal(t, int64(12345), cfg.TelegramChatID)
}

package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/utils"
)

// executeCommand runs the root command with args and returns captured output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func setupConfig(t *testing.T) {
	t.Helper()
	config.Set(config.AppConfig{
		JWTSecret:     "cmd-secret",
		DBDriver:      "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "cli.db"),
		LedgerBackend: config.BackendDatabase,
		CheckinReward: 1,
		Timezone:      "UTC",
		LogLevel:      "silent",
		TokenTTLHours: 24,
	})
	cfgFile = ""
	clearConfirmed = false
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
}

func TestRootCommand(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "status", "checkin", "reset", "clear", "credits", "token", "hash-passcode"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestLedgerCommands(t *testing.T) {
	setupConfig(t)

	out, err := executeCommand(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current streak: 0 day(s)")
	assert.Contains(t, out, "Last check-in: never")

	out, err = executeCommand(t, "checkin")
	require.NoError(t, err)
	assert.Contains(t, out, "Checked in! Streak: 1 day(s)")

	out, err = executeCommand(t, "checkin")
	require.NoError(t, err)
	assert.Contains(t, out, "Already checked in today")

	out, err = executeCommand(t, "credits", "grant", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Credits: 5")

	out, err = executeCommand(t, "credits", "spend", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Credits: 3")

	_, err = executeCommand(t, "credits", "spend", "9")
	assert.ErrorContains(t, err, "not enough credits")

	_, err = executeCommand(t, "credits", "grant", "-1")
	assert.Error(t, err)

	out, err = executeCommand(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Streak reset")

	out, err = executeCommand(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current streak: 0 day(s)")
	assert.Contains(t, out, "Longest streak: 1 day(s)")
	assert.Contains(t, out, "Checked in today: yes")
}

func TestClearNeedsConfirmation(t *testing.T) {
	setupConfig(t)

	_, err := executeCommand(t, "clear")
	assert.ErrorContains(t, err, "--yes")

	_, err = executeCommand(t, "credits", "grant", "2")
	require.NoError(t, err)
	out, err := executeCommand(t, "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "All progress erased.")

	out, err = executeCommand(t, "credits")
	require.NoError(t, err)
	assert.Contains(t, out, "Credits: 0")
}

func TestTokenCommands(t *testing.T) {
	setupConfig(t)

	out, err := executeCommand(t, "token", "laptop")
	require.NoError(t, err)
	claims, err := utils.ParseDeviceToken("cmd-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "laptop", claims.DeviceName)

	out, err = executeCommand(t, "hash-passcode", "9999")
	require.NoError(t, err)
	assert.True(t, utils.CheckPasscode(strings.TrimSpace(out), "9999"))
}

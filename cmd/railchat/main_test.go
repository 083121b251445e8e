package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat"
)

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := run(t, "version")
	assert.Equal(t, "railchat version "+strings.TrimSpace(railchat.Version)+"\n", out)
}

func TestRulesCommand_JSON(t *testing.T) {
	var rules []railchat.RuleInfo
	require.NoError(t, json.Unmarshal([]byte(run(t, "rules", "--json")), &rules))
	require.NotEmpty(t, rules)

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	assert.Contains(t, names, "ask-intent")
	assert.Contains(t, names, "confirm-booking")
}

func TestStationsCommands(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "stations.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,crs,county\nCambridge,CBG,Cambridgeshire\nEly,ELY,Cambridgeshire\n"), 0644))
	db := filepath.Join(dir, "stations.db")

	assert.Equal(t, "Imported 2 stations\n", run(t, "stations", "import", csvPath, "--db", db))
	assert.Equal(t, "CBG\tCambridge\tCambridgeshire\n", run(t, "stations", "lookup", "camb", "--db", db))
}

func TestTopicsCommands(t *testing.T) {
	dir := t.TempDir()
	assert.Contains(t, run(t, "topics", "seed", dir), "topics to "+dir)
	assert.Contains(t, run(t, "topics", "ls", dir), "booking")
}

func TestConfigCommands(t *testing.T) {
	out := run(t, "config", "keys")
	assert.Contains(t, out, "RAILCHAT_STORE_REDIS_ADDR")

	path := filepath.Join(t.TempDir(), "railchat.yaml")
	assert.Equal(t, "Wrote "+path+"\n", run(t, "config", "init", path))
	assert.FileExists(t, path)

	assert.Contains(t, run(t, "config", "show"), "driver: memory")
}

func TestSessionCommands(t *testing.T) {
	assert.Equal(t, "No stored conversations found.\n", run(t, "session", "ls"))
}

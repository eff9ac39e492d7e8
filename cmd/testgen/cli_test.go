package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cleanEnv drops every variable the CLI reads so tests see only what they set.
func cleanEnv(extra ...string) []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "ADO_") || strings.HasPrefix(e, "GEMINI_") ||
			strings.HasPrefix(e, "TESTGEN_") || strings.HasPrefix(e, "LLM_") ||
			strings.HasPrefix(e, "DATABASE_URL=") {
			continue
		}
		env = append(env, e)
	}
	return append(env, extra...)
}

func TestGenerateCommand_MissingStoryID(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "generate")
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), `required flag(s) "story-id" not set`)
}

func TestGenerateCommand_MissingSuite(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "generate", "--story-id", "42")
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "test plan and suite ids are required")
}

func TestGenerateCommand_MissingPAT(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "generate", "--story-id", "42", "--dry-run")
	cmd.Env = cleanEnv("ADO_ORG=contoso", "ADO_PROJECT=QuickDraw")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "personal access token is required")
}

func TestGenerateCommand_InvalidMode(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "generate", "--story-id", "42", "--dry-run", "--mode", "ai")
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "config error")
}

func TestExtractCommand_File(t *testing.T) {
	binaryPath := getBinaryPath(t)

	file := filepath.Join(t.TempDir(), "story.html")
	require.NoError(t, os.WriteFile(file, []byte("<ol><li>Entries are sorted newest first</li><li>A maximum of 10 layers is allowed</li></ol>"), 0644))

	cmd := exec.Command(binaryPath, "extract", "--file", file, "--json")
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), `"text": "Entries are sorted newest first."`)
	assert.Contains(t, string(output), `"category": "Ordering"`)
	assert.Contains(t, string(output), `"category": "Limit/Retention"`)
}

func TestExtractCommand_RequiresInput(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "extract")
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "story-id")
}

func TestHistoryCommand_RequiresDatabase(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "history")
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "run history requires DATABASE_URL")
}

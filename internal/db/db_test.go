package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifactStepConstants(t *testing.T) {
	steps := []string{
		StepStory,
		StepCriteria,
		StepCandidates,
		StepAdvisor,
		StepDedup,
		StepAccepted,
		StepRejections,
		StepPublish,
		StepSummary,
	}

	seen := map[string]bool{}
	for _, step := range steps {
		assert.NotEmpty(t, step, "step constant should not be empty")
		assert.False(t, seen[step], "duplicate step %s", step)
		seen[step] = true
	}
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"testgen_runs", "testgen_artifacts", "testgen_run_steps"} {
		assert.True(t, strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table), table)
	}
}

func TestRunType(t *testing.T) {
	run := Run{
		StoryID: 270542,
		Mode:    "rules",
		Status:  RunStatusRunning,
		Counts:  RunCounts{Criteria: 3, Created: 7},
	}

	assert.Equal(t, 270542, run.StoryID)
	assert.Equal(t, "running", run.Status)
	assert.Equal(t, 7, run.Counts.Created)
	assert.Nil(t, run.CompletedAt)
}

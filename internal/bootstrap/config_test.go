package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDefaultsWithoutFile(t *testing.T) {
	cfg, err := Setup(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, EngineModeLocal, cfg.EngineMode)
	assert.Equal(t, 4, cfg.AnalysisLines)
	assert.Equal(t, 15, cfg.AnalysisDepth)
	assert.Equal(t, 24*time.Hour, cfg.StudyStateTTL)
	assert.Equal(t, CourseSourceMongo, cfg.CourseSource)
}

func TestSetupReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "ENGINE_MODE=Relay\nANALYSIS_LINES=3\nENGINE_ARGS=--threads 2\nSTUDY_STATE_TTL=30m\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Setup(path)
	require.NoError(t, err)

	assert.Equal(t, EngineModeRelay, cfg.EngineMode)
	assert.Equal(t, 3, cfg.AnalysisLines)
	assert.Equal(t, []string{"--threads", "2"}, cfg.EngineArgList())
	assert.Equal(t, 30*time.Minute, cfg.StudyStateTTL)
}

func TestSetupEnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANALYSIS_DEPTH=12\n"), 0o600))
	t.Setenv("ANALYSIS_DEPTH", "20")

	cfg, err := Setup(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.AnalysisDepth)
}

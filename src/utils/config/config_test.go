package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	conf := Default()

	require.Equal(t, DRIVER_POSTGRES, conf.Database.Driver)
	require.Equal(t, 500, conf.Push.BatchSize)
	require.Equal(t, 5*time.Minute, conf.Tasks.ModuleFileWindow)
	require.Equal(t, []int64{2}, conf.Access.AdminIds)
	require.Equal(t, []int64{1, 3, 4}, conf.Access.RoleIds)
	require.False(t, conf.Push.IsValid())
}

func TestEnv(t *testing.T) {
	t.Setenv("ALLY_PUSH_URL", "https://ally.example.com/push")
	t.Setenv("ALLY_PUSH_KEY", "key")
	t.Setenv("ALLY_PUSH_SECRET", "secret")
	t.Setenv("ALLY_ACCESS_ROLE_IDS", "3,4")
	t.Setenv("ALLY_TASKS_JOB_TIMEOUT", "10m")

	conf, err := Load("")
	require.NoError(t, err)

	require.True(t, conf.Push.IsValid())
	require.Equal(t, []int64{3, 4}, conf.Access.RoleIds)
	require.Equal(t, 10*time.Minute, conf.Tasks.JobTimeout)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{
		"Database": {"Driver": "sqlite", "Path": "/tmp/ally.db"},
		"Push": {"BatchSize": 0},
		"WebService": {"TokenSecret": "s3cret"}
	}`), 0600)
	require.NoError(t, err)

	conf, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, DRIVER_SQLITE, conf.Database.Driver)
	require.Equal(t, "/tmp/ally.db", conf.Database.Path)
	require.Equal(t, 1, conf.Push.GetBatchSize())
	require.Equal(t, "s3cret", conf.WebService.TokenSecret)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

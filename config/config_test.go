package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-analytics-server-go/models"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("", "")
	require.NoError(t, err)

	assert.False(t, conf.Debug)
	assert.Equal(t, ":8080", conf.HTTP.Addr)
	assert.Equal(t, 5*time.Second, conf.HTTP.ShutdownTimeout)
	assert.Equal(t, DriverFile, conf.Store.Driver)
	assert.Equal(t, "student_data.json", conf.Store.Path)
	assert.Equal(t, 8, conf.Redis.DB)
	assert.Equal(t, "roster", conf.Redis.Key)
	assert.Equal(t, 5, conf.Analytics.Top)
	assert.Equal(t, 50.0, conf.Analytics.Threshold)
	assert.Same(t, models.StandardScale, conf.GradeScale())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ANALYTICS_STORE_DRIVER", "Bolt")
	t.Setenv("ANALYTICS_BOLT_PATH", "/tmp/roster.db")
	t.Setenv("ANALYTICS_GRADES_SCALE", "strict")
	t.Setenv("ANALYTICS_ANALYTICS_TOP", "3")

	conf, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, DriverBolt, conf.Store.Driver)
	assert.Equal(t, "/tmp/roster.db", conf.Bolt.Path)
	assert.Equal(t, 3, conf.Analytics.Top)
	assert.Same(t, models.StrictScale, conf.GradeScale())
}

func TestLoadDotEnv(t *testing.T) {
	dotEnv := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(dotEnv, []byte("ANALYTICS_HTTP_ADDR=:9090\n"), 0644))
	// godotenv does not override variables that are already set
	t.Setenv("ANALYTICS_HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("ANALYTICS_HTTP_ADDR"))

	conf, err := Load(dotEnv, "")
	require.NoError(t, err)
	assert.Equal(t, ":9090", conf.HTTP.Addr)

	// a missing .env file is ignored
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"), "")
	assert.NoError(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "analytics.yaml")
	content := "store:\n  driver: redis\nredis:\n  addr: redis:6379\n  key: school\nanalytics:\n  threshold: 40\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	conf, err := Load("", file)
	require.NoError(t, err)
	assert.Equal(t, DriverRedis, conf.Store.Driver)
	assert.Equal(t, "redis:6379", conf.Redis.Addr)
	assert.Equal(t, "school", conf.Redis.Key)
	assert.Equal(t, 40.0, conf.Analytics.Threshold)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"ANALYTICS_STORE_DRIVER": "mongo"}},
		{name: "unknown scale", env: map[string]string{"ANALYTICS_GRADES_SCALE": "lenient"}},
		{name: "negative top", env: map[string]string{"ANALYTICS_ANALYTICS_TOP": "-1"}},
		{name: "threshold above 100", env: map[string]string{"ANALYTICS_ANALYTICS_THRESHOLD": "101"}},
		{name: "NaN threshold", env: map[string]string{"ANALYTICS_ANALYTICS_THRESHOLD": "NaN"}},
		{name: "empty file path", env: map[string]string{"ANALYTICS_STORE_PATH": " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", "")
			assert.Error(t, err)
		})
	}
}

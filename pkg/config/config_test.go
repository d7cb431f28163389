package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, BackendShapeClass, cfg.Backend.Shape)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Editor.SessionTTL)
	assert.Equal(t, "@every 1m", cfg.Editor.JanitorSpec)
	assert.True(t, cfg.Editor.ExpandRepeats)
	assert.False(t, cfg.Snapshot.CacheEnabled)
}

func TestFromViperRejectsUnknownShape(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("BACKEND_SHAPE", "graphql")

	_, err := fromViper(v)
	require.Error(t, err)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("BACKEND_SHAPE", " Staff ")
	v.Set("BACKEND_BASE_URL", "http://schedule.internal/")
	v.Set("SNAPSHOT_CACHE_TTL", "bogus")
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, BackendShapeStaff, cfg.Backend.Shape)
	assert.Equal(t, "http://schedule.internal", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Snapshot.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

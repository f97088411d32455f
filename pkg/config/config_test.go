package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 5, cfg.Attachments.MaxCount)
	assert.Equal(t, int64(5*1024*1024), cfg.Attachments.MaxSizeBytes)
	assert.Equal(t, []string{"application/pdf", "image/png", "image/jpeg", "image/webp"}, cfg.Attachments.AllowedMIMEs)
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "X-Alumni-Session", cfg.Session.Header)
}

func TestFromViperUnknownStoreFallsBackToMemory(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "mongo")
	v.Set("ATTACHMENT_MAX_COUNT", 0)

	cfg := fromViper(v)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 5, cfg.Attachments.MaxCount)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("nope", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}

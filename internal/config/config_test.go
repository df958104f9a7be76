package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTOSUBMIT_POLL_SECONDS", "")
	t.Setenv("SELECTION_ORDER", "")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.AutoSubmitPoll)
	assert.Equal(t, "ordered", cfg.SelectionOrder)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTOSUBMIT_POLL_SECONDS", "2")
	t.Setenv("SELECTION_ORDER", "RANDOM")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("MAX_DB_CONNS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 2*time.Second, cfg.AutoSubmitPoll)
	assert.Equal(t, "random", cfg.SelectionOrder)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int32(16), cfg.MaxDBConns)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "user:7:exam:abc:session", CacheKey.ExamSessionKey("abc", 7))
	assert.Equal(t, "7:abc", CacheKey.TimedSessionMember("abc", 7))
	assert.Equal(t, "user:7:case:c1:answers", CacheKey.CaseAnswersKey("c1", 7))
}

func TestValidate(t *testing.T) {
	base := Config{GinMode: "release", JWTSecret: "0123456789abcdef0123456789abcdef", BcryptCost: 10}
	assert.NoError(t, base.Validate())

	dev := base
	dev.GinMode = "debug"
	dev.JWTSecret = defaultJWTSecret
	assert.NoError(t, dev.Validate())

	weak := base
	weak.JWTSecret = defaultJWTSecret
	assert.ErrorContains(t, weak.Validate(), "must be set")

	short := base
	short.JWTSecret = "short"
	short.BcryptCost = 40
	err := short.Validate()
	assert.ErrorContains(t, err, "at least 32 bytes")
	assert.ErrorContains(t, err, "BCRYPT_COST")
}

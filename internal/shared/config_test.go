package shared

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"STORE", "CACHE_TTL_SECONDS", "RATE_LIMIT_RPS", "AMQP_URL"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Store != "mysql" || c.CacheTTL != 900*time.Second || c.RateLimitRPS != 5 || c.AMQPURL != "" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("JWT_SECRET", "s3cret")

	c := FromEnv()
	if c.Store != "memory" || c.CacheTTL != 30*time.Second || c.RateLimitRPS != 0.5 || c.JWTSecret != "s3cret" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.RateLimitBurst != 10 {
		t.Fatalf("bad int should fall back to default, got %d", c.RateLimitBurst)
	}
}

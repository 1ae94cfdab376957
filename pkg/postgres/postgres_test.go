package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := Config{URL: "postgres://app:pw@db.local:5433/chats?sslmode=disable", MaxConns: 8, MaxConnIdleTime: 60}
	pc, err := cfg.PoolConfig()
	require.NoError(t, err)

	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, "db.local", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "chats", pc.ConnConfig.Database)
}

func TestPoolConfigInvalidURL(t *testing.T) {
	cfg := Config{URL: "postgres://%%"}
	_, err := cfg.PoolConfig()
	assert.Error(t, err)
}

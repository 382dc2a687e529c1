package fuse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDefaultConfig 测试默认配置
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 5, cfg.BaseInterval)
	assert.Equal(t, time.Minute, cfg.IntervalUnit)
	assert.Equal(t, 3, cfg.FixedIntervalRetries)
	assert.Equal(t, 5, cfg.MaxExponentialRetries)
	assert.True(t, cfg.JitterEnabled)
	assert.NoError(t, cfg.validate())
}

// TestResolveConfig 测试配置解析与默认值补全
func TestResolveConfig(t *testing.T) {
	t.Run("nil使用完整默认值", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), resolveConfig(nil))
	})

	t.Run("零值字段补默认值", func(t *testing.T) {
		c := resolveConfig(&Config{FixedIntervalRetries: 1})
		assert.Equal(t, 5, c.FailureThreshold)
		assert.Equal(t, 5, c.BaseInterval)
		assert.Equal(t, time.Minute, c.IntervalUnit)
		assert.Equal(t, 1, c.FixedIntervalRetries)
	})

	t.Run("阶段次数的0是合法取值", func(t *testing.T) {
		c := resolveConfig(&Config{})
		assert.Equal(t, 0, c.FixedIntervalRetries)
		assert.Equal(t, 0, c.MaxExponentialRetries)
		assert.NoError(t, c.validate())
	})

	t.Run("不修改调用方的配置", func(t *testing.T) {
		in := &Config{FixedIntervalRetries: 2}
		_ = resolveConfig(in)
		assert.Equal(t, 0, in.FailureThreshold)
	})
}

// TestConfigValidate 测试配置校验
func TestConfigValidate(t *testing.T) {
	base := func() Config {
		c := DefaultConfig()
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"失败阈值为负", func(c *Config) { c.FailureThreshold = -1 }},
		{"基础间隔为负", func(c *Config) { c.BaseInterval = -5 }},
		{"固定阶段次数为负", func(c *Config) { c.FixedIntervalRetries = -1 }},
		{"指数阶段次数为负", func(c *Config) { c.MaxExponentialRetries = -1 }},
		{"间隔单位为负", func(c *Config) { c.IntervalUnit = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.validate()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

package fuse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadProfiles 测试从配置文件加载熔断器档案
func TestLoadProfiles(t *testing.T) {
	t.Run("加载YAML档案", func(t *testing.T) {
		path := writeTempConfig(t, "fuse.yaml", `
breakers:
  orders:
    failure_threshold: 5
    base_interval: 5
    interval_unit: 1m
    fixed_interval_retries: 3
    max_exponential_retries: 5
    jitter_enabled: true
  payment:
    failure_threshold: 3
    base_interval: 2
    interval_unit: 30s
`)

		profiles, err := LoadProfiles(path)
		require.NoError(t, err)
		require.Len(t, profiles, 2)

		orders := profiles["orders"]
		assert.Equal(t, 5, orders.FailureThreshold)
		assert.Equal(t, 5, orders.BaseInterval)
		assert.Equal(t, time.Minute, orders.IntervalUnit)
		assert.Equal(t, 3, orders.FixedIntervalRetries)
		assert.Equal(t, 5, orders.MaxExponentialRetries)
		assert.True(t, orders.JitterEnabled)

		payment := profiles["payment"]
		assert.Equal(t, 3, payment.FailureThreshold)
		assert.Equal(t, 2, payment.BaseInterval)
		assert.Equal(t, 30*time.Second, payment.IntervalUnit)
		// 未声明的阶段次数保持 0
		assert.Equal(t, 0, payment.FixedIntervalRetries)
		assert.False(t, payment.JitterEnabled)
	})

	t.Run("缺省字段补默认值", func(t *testing.T) {
		path := writeTempConfig(t, "fuse.yaml", `
breakers:
  minimal:
    fixed_interval_retries: 1
`)

		profiles, err := LoadProfiles(path)
		require.NoError(t, err)

		minimal := profiles["minimal"]
		assert.Equal(t, 5, minimal.FailureThreshold)
		assert.Equal(t, 5, minimal.BaseInterval)
		assert.Equal(t, time.Minute, minimal.IntervalUnit)
		assert.Equal(t, 1, minimal.FixedIntervalRetries)
	})

	t.Run("无效档案整体失败", func(t *testing.T) {
		path := writeTempConfig(t, "fuse.yaml", `
breakers:
  bad:
    failure_threshold: -1
`)

		_, err := LoadProfiles(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "bad")
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadProfiles("/nonexistent/fuse.yaml")
		assert.Error(t, err)
	})

	t.Run("没有breakers段返回空映射", func(t *testing.T) {
		path := writeTempConfig(t, "fuse.yaml", `other: {}`)

		profiles, err := LoadProfiles(path)
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})
}

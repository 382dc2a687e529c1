package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err, "nil 配置应返回错误")
}

func TestNew_Disabled(t *testing.T) {
	meter, err := New(&Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, meter)

	ctx := context.Background()

	t.Run("禁用时所有指标都是空操作", func(t *testing.T) {
		counter, err := meter.Counter("test_total", "测试计数器")
		require.NoError(t, err)
		counter.Inc(ctx, L("k", "v"))
		counter.Add(ctx, 5)

		gauge, err := meter.Gauge("test_gauge", "测试仪表盘")
		require.NoError(t, err)
		gauge.Set(ctx, 1)
		gauge.Inc(ctx)
		gauge.Dec(ctx)

		histogram, err := meter.Histogram("test_seconds", "测试直方图", WithUnit("s"))
		require.NoError(t, err)
		histogram.Record(ctx, 0.5)
	})

	assert.NoError(t, meter.Shutdown(ctx))
}

func TestNew_Enabled(t *testing.T) {
	// 不设置 Port，避免测试中启动 HTTP 服务器
	meter, err := New(&Config{
		Enabled:     true,
		ServiceName: "fuse-test",
		Version:     "v0.0.1",
	})
	require.NoError(t, err)
	require.NotNil(t, meter)
	defer func() { _ = meter.Shutdown(context.Background()) }()

	ctx := context.Background()

	t.Run("创建并记录各类指标", func(t *testing.T) {
		counter, err := meter.Counter("fuse_requests_total", "受保护调用总数")
		require.NoError(t, err)
		counter.Inc(ctx, L("breaker", "orders"))
		counter.Add(ctx, 3, L("breaker", "orders"))

		gauge, err := meter.Gauge("fuse_open_breakers", "当前打开的熔断器数量")
		require.NoError(t, err)
		gauge.Inc(ctx)
		gauge.Dec(ctx)
		gauge.Set(ctx, 2, L("breaker", "orders"))

		histogram, err := meter.Histogram("fuse_call_duration_seconds", "调用耗时", WithUnit("s"))
		require.NoError(t, err)
		histogram.Record(ctx, 0.123, L("breaker", "orders"))
	})
}

func TestLabel(t *testing.T) {
	l := L("breaker", "orders")
	assert.Equal(t, "breaker", l.Key)
	assert.Equal(t, "orders", l.Value)
}

func TestDiscard(t *testing.T) {
	meter := Discard()
	counter, err := meter.Counter("x", "y")
	require.NoError(t, err)
	counter.Inc(context.Background())
	require.NoError(t, meter.Shutdown(context.Background()))
}

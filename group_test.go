package fuse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewGroup 测试熔断器组创建
func TestNewGroup(t *testing.T) {
	t.Run("正常创建", func(t *testing.T) {
		g, err := NewGroup(testConfig())
		require.NoError(t, err)
		require.NotNil(t, g)
	})

	t.Run("无效配置返回错误", func(t *testing.T) {
		_, err := NewGroup(&Config{FailureThreshold: -1})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

// TestGroupBreaker 测试按键获取熔断器
func TestGroupBreaker(t *testing.T) {
	g, err := NewGroup(testConfig())
	require.NoError(t, err)

	t.Run("同一个键返回同一个实例", func(t *testing.T) {
		a, err := g.Breaker("orders")
		require.NoError(t, err)
		b, err := g.Breaker("orders")
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("空键返回错误", func(t *testing.T) {
		_, err := g.Breaker("")
		assert.ErrorIs(t, err, ErrKeyEmpty)
	})

	t.Run("并发创建同一个键只有一个实例", func(t *testing.T) {
		const goroutines = 20
		results := make([]Breaker, goroutines)
		var wg sync.WaitGroup
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = g.Breaker("concurrent")
			}(i)
		}
		wg.Wait()
		for i := 1; i < goroutines; i++ {
			assert.Same(t, results[0], results[i])
		}
	})
}

// TestGroupIsolation 测试不同键之间的故障隔离
func TestGroupIsolation(t *testing.T) {
	g, err := NewGroup(testConfig())
	require.NoError(t, err)
	testErr := errors.New("backend down")

	// 把 payment 打到熔断
	for i := 0; i < 3; i++ {
		_, _ = g.Execute(context.Background(), "payment", func() (any, error) {
			return nil, testErr
		})
	}

	state, err := g.State("payment")
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)

	// orders 不受影响
	result, err := g.Execute(context.Background(), "orders", func() (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	state, err = g.State("orders")
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)
}

// TestGroupState 测试状态查询
func TestGroupState(t *testing.T) {
	g, err := NewGroup(testConfig())
	require.NoError(t, err)

	t.Run("未创建的键按闭合处理", func(t *testing.T) {
		state, err := g.State("unknown")
		assert.ErrorIs(t, err, ErrBreakerNotFound)
		assert.Equal(t, StateClosed, state)
	})

	t.Run("空键返回错误", func(t *testing.T) {
		_, err := g.State("")
		assert.ErrorIs(t, err, ErrKeyEmpty)
	})
}

// TestGroupStatus 测试快照查询
func TestGroupStatus(t *testing.T) {
	g, err := NewGroup(testConfig())
	require.NoError(t, err)

	_, err = g.Execute(context.Background(), "orders", func() (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	status, err := g.Status("orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", status.Name)
	assert.Equal(t, StateClosed, status.State)
	assert.Equal(t, 10*time.Millisecond, status.CurrentRecoveryTimeout)

	_, err = g.Status("unknown")
	assert.ErrorIs(t, err, ErrBreakerNotFound)
}

package fuse

import (
	"context"

	"github.com/ceyewan/fuse/clog"
	"github.com/ceyewan/fuse/metrics"
)

// FallbackFunc 降级函数
// 仅在调用因熔断打开被拒绝时执行；返回 nil 表示降级成功，
// 调用方会收到 (nil, nil)；返回非 nil 错误则原样透传给调用方。
// 被放行调用自身的失败不会触发降级，原始错误必须传播。
type FallbackFunc func(ctx context.Context, name string, err error) error

// Option 组件初始化选项函数
type Option func(*options)

// options 组件初始化选项配置（内部使用，小写）
type options struct {
	logger   clog.Logger
	meter    metrics.Meter
	fallback FallbackFunc
}

// WithLogger 设置 Logger
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMeter 设置 Meter
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}

// WithFallback 设置熔断打开时的降级函数
func WithFallback(fallback FallbackFunc) Option {
	return func(o *options) {
		o.fallback = fallback
	}
}

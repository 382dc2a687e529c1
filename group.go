package fuse

import (
	"context"
	"sync"

	"github.com/ceyewan/fuse/clog"
	"github.com/ceyewan/fuse/metrics"
)

// Group 按键管理一组熔断器
// 同一个键对应同一个熔断器实例，首次使用时惰性创建，所有实例共享同一份配置。
// 适合按下游服务、按路由等维度做故障隔离。
type Group struct {
	cfg      Config
	logger   clog.Logger
	meter    metrics.Meter
	fallback FallbackFunc

	// breakers 键 -> *circuitBreaker
	breakers sync.Map
}

// NewGroup 创建熔断器组
// cfg 为组内所有熔断器的共享配置，nil 时使用默认配置；配置只在此处校验一次
func NewGroup(cfg *Config, opts ...Option) (*Group, error) {
	c := resolveConfig(cfg)
	if err := c.validate(); err != nil {
		return nil, err
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	logger := opt.logger
	if logger != nil {
		logger = logger.With(clog.String("component", "fuse"))
	}

	return &Group{
		cfg:      c,
		logger:   logger,
		meter:    opt.meter,
		fallback: opt.fallback,
	}, nil
}

// Breaker 获取指定键的熔断器，不存在时创建
func (g *Group) Breaker(key string) (Breaker, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}

	if v, ok := g.breakers.Load(key); ok {
		return v.(*circuitBreaker), nil
	}

	// LoadOrStore 保证并发创建时同一个键只有一个实例胜出
	created := newCircuitBreaker(key, g.cfg, g.logger, g.meter, g.fallback)
	v, loaded := g.breakers.LoadOrStore(key, created)
	if !loaded && g.logger != nil {
		g.logger.Info("circuit breaker created", clog.String("breaker", key))
	}
	return v.(*circuitBreaker), nil
}

// Execute 对指定键执行受熔断保护的函数
func (g *Group) Execute(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	brk, err := g.Breaker(key)
	if err != nil {
		return nil, err
	}
	return brk.Execute(ctx, fn)
}

// State 获取指定键的熔断器状态
// 键对应的熔断器尚未创建时返回 (StateClosed, ErrBreakerNotFound)，
// 调用方可按「未熔断」处理
func (g *Group) State(key string) (State, error) {
	if key == "" {
		return StateClosed, ErrKeyEmpty
	}
	v, ok := g.breakers.Load(key)
	if !ok {
		return StateClosed, ErrBreakerNotFound
	}
	return v.(*circuitBreaker).State(), nil
}

// Status 获取指定键的熔断器状态快照
func (g *Group) Status(key string) (Status, error) {
	if key == "" {
		return Status{}, ErrKeyEmpty
	}
	v, ok := g.breakers.Load(key)
	if !ok {
		return Status{}, ErrBreakerNotFound
	}
	return v.(*circuitBreaker).Status(), nil
}

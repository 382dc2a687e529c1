// Package fuse 提供了熔断器组件，专注于单进程内对易故障依赖的故障隔离与自动恢复。
//
// fuse 的核心是一个「连续失败计数 + 混合重试间隔」的熔断状态机：
// - 闭合状态下统计连续失败次数，达到阈值后熔断
// - 打开状态下快速失败，按「固定间隔 → 指数间隔 → 封顶」的混合调度安排恢复探测
// - 半开状态下只放行一个探测请求，成功即恢复，失败则按调度继续熔断
// - 可选抖动（±10%），避免大量客户端同步重试
// - 懒惰时间判定，无后台 goroutine、定时器或调度器
// - 灵活的降级策略（快速失败或自定义降级逻辑）
// - 开箱即用的 Gin 中间件与 gRPC 客户端拦截器
//
// ## 基本使用
//
//	// 创建熔断器（单个依赖）
//	brk, _ := fuse.New("orders", &fuse.Config{
//		FailureThreshold:      5,
//		BaseInterval:          5,
//		IntervalUnit:          time.Minute,
//		FixedIntervalRetries:  3,
//		MaxExponentialRetries: 5,
//		JitterEnabled:         true,
//	}, fuse.WithLogger(logger))
//
//	result, err := brk.Execute(ctx, func() (any, error) {
//		return client.GetOrder(ctx, id)
//	})
//	if fuse.IsOpen(err) {
//		// 熔断中，快速失败
//	}
//
// ## 按键管理多个熔断器
//
//	group, _ := fuse.NewGroup(cfg, fuse.WithLogger(logger))
//	_, err := group.Execute(ctx, "payment", fn)
//
// ## 降级策略
//
//	brk, _ := fuse.New("orders", cfg,
//		fuse.WithFallback(func(ctx context.Context, name string, err error) error {
//			// 返回缓存数据或默认值
//			return nil
//		}),
//	)
//
// ## 可观测性
//
// 通过注入 Logger 和 Meter 实现统一的日志和指标收集：
//
//	brk, _ := fuse.New("orders", cfg,
//		fuse.WithLogger(logger),
//		fuse.WithMeter(meter),
//	)
//
// 状态快照用于监控上报：
//
//	status := brk.Status()
//	fmt.Println(status.State, status.RetryPhase, status.TimeUntilRetry)
package fuse

import (
	"context"

	"github.com/ceyewan/fuse/clog"
)

// ========================================
// 接口定义 (Interface Definitions)
// ========================================

// Breaker 熔断器核心接口
type Breaker interface {
	// Execute 执行受熔断保护的函数
	// fn: 要执行的函数，由调用方负责超时控制
	// 返回: 函数执行结果和错误
	//
	// 熔断打开时返回 *OpenStateError（匹配 ErrOpenState）；
	// 被放行的调用失败时，原始错误会原样返回，不做包装。
	Execute(ctx context.Context, fn func() (any, error)) (any, error)

	// Status 获取熔断器状态快照（按需计算，无副作用）
	Status() Status

	// State 获取熔断器当前状态
	State() State

	// Name 返回熔断器名称
	Name() string
}

// State 熔断器状态
type State int

const (
	// StateClosed 闭合状态（正常）
	StateClosed State = iota
	// StateHalfOpen 半开状态（探测恢复）
	StateHalfOpen
	// StateOpen 打开状态（熔断中）
	StateOpen
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// MarshalJSON 将状态序列化为字符串表示
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ========================================
// 工厂函数 (Factory Functions)
// ========================================

// New 创建熔断器实例
// 这是标准的工厂函数，支持在不依赖其他容器的情况下独立实例化
//
// 参数:
//   - name: 熔断器名称（对应一个受保护的依赖）
//   - cfg: 熔断器配置，nil 时使用默认配置
//   - opts: 可选参数 (Logger, Meter, Fallback)
//
// 使用示例:
//
//	brk, _ := fuse.New("orders", &fuse.Config{
//		FailureThreshold:      5,
//		BaseInterval:          5,
//		FixedIntervalRetries:  3,
//		MaxExponentialRetries: 5,
//	}, fuse.WithLogger(logger))
func New(name string, cfg *Config, opts ...Option) (Breaker, error) {
	if name == "" {
		return nil, ErrNameEmpty
	}

	c := resolveConfig(cfg)
	if err := c.validate(); err != nil {
		return nil, err
	}

	// 应用选项
	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	// 派生 Logger（添加 component 字段）
	logger := opt.logger
	if logger != nil {
		logger = logger.With(clog.String("component", "fuse"))
		logger.Info("creating circuit breaker",
			clog.String("breaker", name),
			clog.Int("failure_threshold", c.FailureThreshold),
			clog.Int("base_interval", c.BaseInterval),
			clog.Duration("interval_unit", c.IntervalUnit),
			clog.Int("fixed_interval_retries", c.FixedIntervalRetries),
			clog.Int("max_exponential_retries", c.MaxExponentialRetries),
			clog.Bool("jitter_enabled", c.JitterEnabled))
	}

	return newCircuitBreaker(name, c, logger, opt.meter, opt.fallback), nil
}

package fuse

import (
	"time"

	"github.com/ceyewan/fuse/xerrors"
)

// ========================================
// 配置定义 (Configuration)
// ========================================

// Config 熔断器配置
//
// 混合重试调度的设计：基数即增长因子。BaseInterval 既是固定阶段的单位等待
// 时长，也是指数阶段的增长因子，因此它是一个以 IntervalUnit 为单位的整数
// 计数，而不是 time.Duration。BaseInterval=5、IntervalUnit=time.Minute 时，
// 固定阶段每次等 5 分钟，指数阶段依次为 25、125、625... 分钟。
type Config struct {
	// FailureThreshold 闭合状态下触发熔断的连续失败次数（默认：5）
	FailureThreshold int `mapstructure:"failure_threshold" json:"failure_threshold" yaml:"failure_threshold"`

	// BaseInterval 固定阶段的单位等待时长，以 IntervalUnit 计（默认：5）
	// 同时作为指数阶段的增长因子
	BaseInterval int `mapstructure:"base_interval" json:"base_interval" yaml:"base_interval"`

	// IntervalUnit 等待时长的单位（默认：time.Minute）
	IntervalUnit time.Duration `mapstructure:"interval_unit" json:"interval_unit" yaml:"interval_unit"`

	// FixedIntervalRetries 固定间隔阶段的重试次数（默认：0）
	// 可以为 0，表示跳过固定阶段直接进入指数阶段
	FixedIntervalRetries int `mapstructure:"fixed_interval_retries" json:"fixed_interval_retries" yaml:"fixed_interval_retries"`

	// MaxExponentialRetries 指数间隔阶段的重试次数（默认：0）
	// 超出后调度封顶在最后一个指数间隔，循环探测直到恢复
	MaxExponentialRetries int `mapstructure:"max_exponential_retries" json:"max_exponential_retries" yaml:"max_exponential_retries"`

	// JitterEnabled 是否对计算出的间隔应用 ±10% 均匀抖动（DefaultConfig 开启）
	// 用于避免大量客户端同步重试造成的惊群
	JitterEnabled bool `mapstructure:"jitter_enabled" json:"jitter_enabled" yaml:"jitter_enabled"`
}

// DefaultConfig 返回默认配置
//
// 与原始调度示例一致：阈值 5 次，基数 5 分钟，固定阶段 3 次，指数阶段 5 次，
// 开启抖动。
func DefaultConfig() Config {
	return Config{
		FailureThreshold:      5,
		BaseInterval:          5,
		IntervalUnit:          time.Minute,
		FixedIntervalRetries:  3,
		MaxExponentialRetries: 5,
		JitterEnabled:         true,
	}
}

// resolveConfig 解析用户配置（内部使用）
// nil 配置使用完整默认值；非 nil 配置只为无效的零值字段补默认值，
// FixedIntervalRetries 和 MaxExponentialRetries 的 0 是合法取值，保持不变
func resolveConfig(cfg *Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	c := *cfg
	c.setDefaults()
	return c
}

// setDefaults 为零值字段设置默认值（内部使用）
func (c *Config) setDefaults() {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.BaseInterval == 0 {
		c.BaseInterval = 5
	}
	if c.IntervalUnit == 0 {
		c.IntervalUnit = time.Minute
	}
}

// validate 验证配置的有效性（内部使用）
// 违反约束时返回匹配 ErrInvalidConfig 的错误
func (c *Config) validate() error {
	if c.FailureThreshold < 1 {
		return xerrors.Wrapf(ErrInvalidConfig, "failure_threshold must be positive, got %d", c.FailureThreshold)
	}
	if c.BaseInterval < 1 {
		return xerrors.Wrapf(ErrInvalidConfig, "base_interval must be positive, got %d", c.BaseInterval)
	}
	if c.FixedIntervalRetries < 0 {
		return xerrors.Wrapf(ErrInvalidConfig, "fixed_interval_retries must be non-negative, got %d", c.FixedIntervalRetries)
	}
	if c.MaxExponentialRetries < 0 {
		return xerrors.Wrapf(ErrInvalidConfig, "max_exponential_retries must be non-negative, got %d", c.MaxExponentialRetries)
	}
	if c.IntervalUnit <= 0 {
		return xerrors.Wrapf(ErrInvalidConfig, "interval_unit must be positive, got %s", c.IntervalUnit)
	}
	return nil
}

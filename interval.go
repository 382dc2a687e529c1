package fuse

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// jitterFraction 抖动幅度：原始间隔的 ±10%
// 对任意 BaseInterval >= 2 可保证阶段顺序不被打乱：
// 固定阶段抖动上界 1.1*B 小于指数阶段抖动下界 0.9*B^2
const jitterFraction = 0.10

// maxInterval 间隔计算的饱和上界
const maxInterval = time.Duration(math.MaxInt64)

// rawInterval 计算第 attempt 次重试的原始等待时长（未加抖动）
//
// 混合调度，attempt 从 1 开始：
//   - 固定阶段 (attempt <= F)：等待 B 个单位
//   - 指数阶段 (F < attempt <= F+X)：第 e = attempt-F 步等待 B^(e+1) 个单位
//     （基数即增长因子：B=5 时依次为 25、125、625...）
//   - 封顶阶段 (attempt > F+X)：保持在最后一个指数间隔，不再增长
//
// 计算过程饱和而非溢出。
func (c *Config) rawInterval(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	b := int64(c.BaseInterval)
	n := b
	if attempt > c.FixedIntervalRetries {
		e := attempt - c.FixedIntervalRetries
		if e > c.MaxExponentialRetries {
			e = c.MaxExponentialRetries
		}
		for i := 0; i < e; i++ {
			if n > math.MaxInt64/b {
				return maxInterval
			}
			n *= b
		}
	}

	unit := int64(c.IntervalUnit)
	if n > math.MaxInt64/unit {
		return maxInterval
	}
	return time.Duration(n * unit)
}

// retryPhase 返回第 attempt 次重试所处阶段的描述字符串
// attempt <= 0 表示熔断器处于闭合状态，没有进行中的重试调度
func (c *Config) retryPhase(attempt int) string {
	f := c.FixedIntervalRetries
	x := c.MaxExponentialRetries
	switch {
	case attempt <= 0:
		return "closed"
	case attempt <= f:
		return fmt.Sprintf("fixed-interval (attempt %d/%d)", attempt, f)
	case attempt <= f+x:
		return fmt.Sprintf("exponential-interval (attempt %d/%d)", attempt-f, x)
	default:
		return "exhausted (capped)"
	}
}

// jitterInterval 对原始间隔应用均匀抖动，结果落在 [0.9d, 1.1d] 内
func jitterInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	factor := 1 + jitterFraction*(2*rand.Float64()-1)
	return time.Duration(float64(d) * factor)
}

package fuse

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/fuse/clog"
	"github.com/ceyewan/fuse/metrics"
)

// circuitBreaker 熔断器实现
//
// 并发约束：所有状态迁移和计数更新都在 mu 保护下进行，受保护的函数本身
// 在锁外执行，慢调用不会阻塞其他调用方的快速失败。「打开 → 半开并放行
// 本次调用」在锁内一步完成，保证任意时刻最多只有一个探测在途。
//
// 时间判定是懒惰的：没有后台 goroutine 或定时器，是否允许探测在下一次
// 调用到达时根据 nextRetryAt 判断。
type circuitBreaker struct {
	name     string
	cfg      Config
	logger   clog.Logger
	meter    metrics.Meter
	fallback FallbackFunc

	// now 可在测试中替换以控制时间
	now func() time.Time

	mu sync.Mutex

	state State

	// generation 每次状态迁移递增
	// 闭合阶段放行的调用带着放行时的 generation，回写结果时若 generation
	// 已变化（期间发生了状态迁移）则丢弃，避免重复计数和丢失迁移
	generation uint64

	// failureCount 闭合状态下的连续失败次数
	failureCount int

	// retryAttempt 本轮熔断中的探测周期序号（1 起），驱动间隔调度；
	// 回到闭合状态时清零
	retryAttempt int

	// consecutiveBreaks 本轮熔断中失败的探测次数（半开 → 打开的次数）
	consecutiveBreaks int

	// probeInFlight 半开状态下是否已有探测在途
	probeInFlight bool

	// openedAt 最近一次进入打开状态的时间
	openedAt time.Time

	// nextRetryAt 下次允许探测的时间
	nextRetryAt time.Time

	// recoveryTimeout 当前 retryAttempt 对应的等待时长（已应用抖动）
	recoveryTimeout time.Duration
}

// newCircuitBreaker 创建熔断器实例（内部函数）
// 注意：cfg 已在 New() 中补全默认值并通过 validate()
func newCircuitBreaker(
	name string,
	cfg Config,
	logger clog.Logger,
	meter metrics.Meter,
	fallback FallbackFunc,
) *circuitBreaker {
	if logger == nil {
		logger = clog.Discard()
	}
	return &circuitBreaker{
		name:     name,
		cfg:      cfg,
		logger:   logger.With(clog.String("breaker", name)),
		meter:    meter,
		fallback: fallback,
		now:      time.Now,
		state:    StateClosed,
	}
}

// Name 返回熔断器名称
func (b *circuitBreaker) Name() string {
	return b.name
}

// State 获取熔断器当前状态
func (b *circuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute 执行受熔断保护的函数
func (b *circuitBreaker) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	probe, gen, rejectErr := b.admit()
	if rejectErr != nil {
		b.recordReject(ctx)
		b.logger.Debug("call rejected, circuit breaker open", clog.Error(rejectErr))

		// 执行降级逻辑
		if b.fallback != nil {
			if fbErr := b.fallback(ctx, b.name, rejectErr); fbErr != nil {
				return nil, fbErr
			}
			return nil, nil
		}
		return nil, rejectErr
	}

	// 受保护的函数在锁外执行
	start := time.Now()
	result, err := fn()
	duration := time.Since(start)

	b.afterCall(probe, gen, err)
	b.recordOutcome(ctx, err, duration)

	// 原始错误原样返回，不做包装
	return result, err
}

// admit 判定本次调用是否放行（内部方法，持锁）
// 返回: probe（是否作为恢复探测放行）, gen（放行时的 generation）, rejectErr
func (b *circuitBreaker) admit() (probe bool, gen uint64, rejectErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	switch b.state {
	case StateClosed:
		return false, b.generation, nil

	case StateOpen:
		// 到达 nextRetryAt 后，下一个调用触发打开 → 半开迁移并作为探测放行
		if !now.Before(b.nextRetryAt) {
			b.setState(StateHalfOpen)
			b.probeInFlight = true
			b.logger.Info("admitting recovery probe",
				clog.Int("retry_attempt", b.retryAttempt),
				clog.String("retry_phase", b.cfg.retryPhase(b.retryAttempt)))
			return true, b.generation, nil
		}
		return false, 0, b.openError(now)

	default: // StateHalfOpen: 已有探测在途，其余调用一律拒绝
		return false, 0, b.openError(now)
	}
}

// afterCall 回写调用结果并执行相应的状态迁移（内部方法，持锁）
func (b *circuitBreaker) afterCall(probe bool, gen uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	if probe {
		if b.state != StateHalfOpen || !b.probeInFlight {
			return
		}
		b.probeInFlight = false

		if err == nil {
			b.logger.Info("recovery probe succeeded, closing circuit",
				clog.Int("consecutive_circuit_breaks", b.consecutiveBreaks))
			b.reset()
			return
		}

		b.retryAttempt++
		b.consecutiveBreaks++
		b.logger.Warn("recovery probe failed, reopening circuit",
			clog.Error(err),
			clog.Int("retry_attempt", b.retryAttempt),
			clog.Int("consecutive_circuit_breaks", b.consecutiveBreaks))
		b.reopen(now)
		return
	}

	// 闭合阶段放行的调用：generation 变化说明期间已发生状态迁移，丢弃结果
	if gen != b.generation || b.state != StateClosed {
		return
	}

	if err == nil {
		b.failureCount = 0
		return
	}

	b.failureCount++
	if b.failureCount >= b.cfg.FailureThreshold {
		b.logger.Warn("failure threshold reached, opening circuit",
			clog.Error(err),
			clog.Int("failure_count", b.failureCount),
			clog.Int("failure_threshold", b.cfg.FailureThreshold))
		b.retryAttempt = 1
		b.consecutiveBreaks = 0
		b.openedAt = now
		b.reopen(now)
	}
}

// reopen 进入打开状态并为当前 retryAttempt 安排下次探测时间（内部方法，需持锁）
func (b *circuitBreaker) reopen(now time.Time) {
	b.setState(StateOpen)
	b.openedAt = now

	interval := b.cfg.rawInterval(b.retryAttempt)
	if b.cfg.JitterEnabled {
		interval = jitterInterval(interval)
	}
	b.recoveryTimeout = interval
	b.nextRetryAt = now.Add(interval)

	b.logger.Info("next probe scheduled",
		clog.Int("retry_attempt", b.retryAttempt),
		clog.String("retry_phase", b.cfg.retryPhase(b.retryAttempt)),
		clog.Duration("recovery_timeout", interval),
		clog.Time("next_retry_at", b.nextRetryAt))
}

// reset 回到闭合状态并清零所有计数（内部方法，需持锁）
func (b *circuitBreaker) reset() {
	b.setState(StateClosed)
	b.failureCount = 0
	b.retryAttempt = 0
	b.consecutiveBreaks = 0
	b.recoveryTimeout = 0
	b.openedAt = time.Time{}
	b.nextRetryAt = time.Time{}
}

// setState 执行状态迁移（内部方法，需持锁）
func (b *circuitBreaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.generation++

	b.logger.Info("circuit breaker state changed",
		clog.String("from", from.String()),
		clog.String("to", to.String()))

	// 记录状态变更指标
	if b.meter != nil {
		if counter, err := b.meter.Counter(MetricStateChanges, "Circuit breaker state changes"); err == nil && counter != nil {
			counter.Inc(context.Background(),
				metrics.L(LabelBreaker, b.name),
				metrics.L(LabelFromState, from.String()),
				metrics.L(LabelToState, to.String()))
		}
	}
}

// openError 构造携带剩余等待时长的拒绝错误（内部方法，需持锁）
func (b *circuitBreaker) openError(now time.Time) error {
	var remaining time.Duration
	if b.nextRetryAt.After(now) {
		remaining = b.nextRetryAt.Sub(now)
	}
	return &OpenStateError{
		Breaker:        b.name,
		TimeUntilRetry: remaining,
	}
}

// recordReject 记录被熔断拒绝的调用指标（内部方法）
func (b *circuitBreaker) recordReject(ctx context.Context) {
	if b.meter == nil {
		return
	}
	if counter, err := b.meter.Counter(MetricRequestsTotal, "Total protected calls"); err == nil && counter != nil {
		counter.Inc(ctx, metrics.L(LabelBreaker, b.name))
	}
	if counter, err := b.meter.Counter(MetricRejectsTotal, "Calls rejected by open circuit"); err == nil && counter != nil {
		counter.Inc(ctx, metrics.L(LabelBreaker, b.name))
	}
}

// recordOutcome 记录被放行调用的结果指标（内部方法）
func (b *circuitBreaker) recordOutcome(ctx context.Context, err error, duration time.Duration) {
	if b.meter == nil {
		return
	}
	if counter, e := b.meter.Counter(MetricRequestsTotal, "Total protected calls"); e == nil && counter != nil {
		counter.Inc(ctx, metrics.L(LabelBreaker, b.name))
	}
	if histogram, e := b.meter.Histogram(MetricCallDuration, "Protected call duration", metrics.WithUnit("s")); e == nil && histogram != nil {
		histogram.Record(ctx, duration.Seconds(), metrics.L(LabelBreaker, b.name))
	}
	if err == nil {
		if counter, e := b.meter.Counter(MetricSuccessTotal, "Successful calls"); e == nil && counter != nil {
			counter.Inc(ctx, metrics.L(LabelBreaker, b.name))
		}
	} else {
		if counter, e := b.meter.Counter(MetricFailuresTotal, "Failed calls"); e == nil && counter != nil {
			counter.Inc(ctx, metrics.L(LabelBreaker, b.name))
		}
	}
}

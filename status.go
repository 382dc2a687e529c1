package fuse

import "time"

// Status 熔断器状态快照
// 由 Status() 在锁内一次性采集，字段间相互一致
type Status struct {
	// Name 熔断器名称
	Name string `json:"name"`

	// State 当前状态
	State State `json:"state"`

	// FailureCount 闭合状态下的连续失败次数
	FailureCount int `json:"failure_count"`

	// ConsecutiveCircuitBreaks 本轮熔断中失败的探测次数
	ConsecutiveCircuitBreaks int `json:"consecutive_circuit_breaks"`

	// RetryPhase 当前重试调度所处的阶段描述
	RetryPhase string `json:"retry_phase"`

	// CurrentRecoveryTimeout 当前生效的恢复等待时长
	// 闭合状态下为首次熔断将采用的原始间隔
	CurrentRecoveryTimeout time.Duration `json:"current_recovery_timeout"`

	// TimeUntilRetry 距下次允许探测的剩余时长，仅打开状态下非零
	TimeUntilRetry time.Duration `json:"time_until_retry"`

	// Config 熔断器的生效配置
	Config Config `json:"config"`
}

// Status 获取熔断器状态快照
func (b *circuitBreaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	recovery := b.recoveryTimeout
	if b.retryAttempt == 0 {
		recovery = b.cfg.rawInterval(1)
	}

	var remaining time.Duration
	if b.state == StateOpen && b.nextRetryAt.After(now) {
		remaining = b.nextRetryAt.Sub(now)
	}

	return Status{
		Name:                     b.name,
		State:                    b.state,
		FailureCount:             b.failureCount,
		ConsecutiveCircuitBreaks: b.consecutiveBreaks,
		RetryPhase:               b.cfg.retryPhase(b.retryAttempt),
		CurrentRecoveryTimeout:   recovery,
		TimeUntilRetry:           remaining,
		Config:                   b.cfg,
	}
}

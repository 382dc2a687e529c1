package fuse

import (
	"fmt"
	"time"

	"github.com/ceyewan/fuse/xerrors"
)

// 错误定义
var (
	// ErrOpenState 熔断器处于打开状态，调用被快速失败
	// 实际返回的错误是 *OpenStateError，通过 errors.Is 匹配本哨兵
	ErrOpenState = xerrors.New("fuse: circuit breaker is open")

	// ErrInvalidConfig 配置无效，构造时返回
	ErrInvalidConfig = xerrors.New("fuse: invalid config")

	// ErrNameEmpty 熔断器名称为空
	ErrNameEmpty = xerrors.New("fuse: name is empty")

	// ErrKeyEmpty 熔断键为空
	ErrKeyEmpty = xerrors.New("fuse: key is empty")

	// ErrBreakerNotFound 指定键的熔断器不存在
	ErrBreakerNotFound = xerrors.New("fuse: breaker not found")
)

// OpenStateError 熔断打开时的拒绝错误
// 携带距下次允许探测的剩余时长，供调用方做退避决策
type OpenStateError struct {
	// Breaker 熔断器名称
	Breaker string

	// TimeUntilRetry 距下次允许探测的剩余时长（>= 0）
	TimeUntilRetry time.Duration
}

func (e *OpenStateError) Error() string {
	return fmt.Sprintf("fuse: circuit breaker %q is open, next retry in %s", e.Breaker, e.TimeUntilRetry)
}

// Is 使 errors.Is(err, ErrOpenState) 成立
func (e *OpenStateError) Is(target error) bool {
	return target == ErrOpenState
}

// IsOpen 检查错误是否为熔断打开导致的拒绝
func IsOpen(err error) bool {
	return xerrors.Is(err, ErrOpenState)
}

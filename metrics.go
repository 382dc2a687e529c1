package fuse

// ========================================
// 指标常量 (Metric Constants)
// ========================================

// 指标名称
const (
	// MetricRequestsTotal 受保护调用总数（含被拒绝的）
	MetricRequestsTotal = "fuse_requests_total"
	// MetricSuccessTotal 成功调用总数
	MetricSuccessTotal = "fuse_success_total"
	// MetricFailuresTotal 失败调用总数
	MetricFailuresTotal = "fuse_failures_total"
	// MetricRejectsTotal 因熔断打开被拒绝的调用总数
	MetricRejectsTotal = "fuse_rejects_total"
	// MetricCallDuration 被放行调用的执行耗时（秒）
	MetricCallDuration = "fuse_call_duration_seconds"
	// MetricStateChanges 状态迁移次数
	MetricStateChanges = "fuse_state_changes_total"
)

// 指标标签
const (
	// LabelBreaker 熔断器名称
	LabelBreaker = "breaker"
	// LabelFromState 迁移前状态
	LabelFromState = "from_state"
	// LabelToState 迁移后状态
	LabelToState = "to_state"
)

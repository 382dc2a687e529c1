package xerrors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	// nil 错误应返回 nil
	if err := Wrap(nil, "context"); err != nil {
		t.Errorf("Wrap(nil) = %v，期望 nil", err)
	}

	// 包装后的错误应包含消息并保留错误链
	base := errors.New("base error")
	wrapped := Wrap(base, "context")
	if wrapped == nil {
		t.Fatal("Wrap(err) = nil，期望非 nil")
	}
	if wrapped.Error() != "context: base error" {
		t.Errorf("Wrap(err).Error() = %q，期望 %q", wrapped.Error(), "context: base error")
	}
	if !errors.Is(wrapped, base) {
		t.Error("errors.Is(wrapped, base) = false，期望 true")
	}
}

func TestWrapf(t *testing.T) {
	if err := Wrapf(nil, "breaker %s", "orders"); err != nil {
		t.Errorf("Wrapf(nil) = %v，期望 nil", err)
	}

	base := errors.New("unavailable")
	wrapped := Wrapf(base, "breaker %s", "orders")
	if wrapped.Error() != "breaker orders: unavailable" {
		t.Errorf("Wrapf(err).Error() = %q，期望 %q", wrapped.Error(), "breaker orders: unavailable")
	}
}

func TestWithCode(t *testing.T) {
	if err := WithCode(nil, "CODE"); err != nil {
		t.Errorf("WithCode(nil) = %v，期望 nil", err)
	}

	base := errors.New("circuit open")
	coded := WithCode(base, "CIRCUIT_OPEN")
	if coded.Error() != "[CIRCUIT_OPEN] circuit open" {
		t.Errorf("WithCode(err).Error() = %q，期望 %q", coded.Error(), "[CIRCUIT_OPEN] circuit open")
	}

	// GetCode 应能从错误链中提取 code
	if code := GetCode(coded); code != "CIRCUIT_OPEN" {
		t.Errorf("GetCode(coded) = %q，期望 %q", code, "CIRCUIT_OPEN")
	}
	wrapped := Wrap(coded, "execute failed")
	if code := GetCode(wrapped); code != "CIRCUIT_OPEN" {
		t.Errorf("GetCode(wrapped) = %q，期望 %q", code, "CIRCUIT_OPEN")
	}

	// 无 code 的错误应返回空串
	if code := GetCode(base); code != "" {
		t.Errorf("GetCode(base) = %q，期望空串", code)
	}
}

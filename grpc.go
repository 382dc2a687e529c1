package fuse

import (
	"context"
	"errors"
	"io"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ceyewan/fuse/clog"
)

// KeyFunc 从 gRPC 调用上下文中提取熔断键
type KeyFunc func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string

// ========================================
// 内置 KeyFunc 实现
// ========================================

// ServiceLevelKey 服务级别键（默认）
// 从完整方法名中提取服务段作为熔断维度
// 返回示例: "pkg.OrderService"
func ServiceLevelKey() KeyFunc {
	return func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string {
		// fullMethod 形如 "/pkg.Service/Method"
		s := strings.TrimPrefix(fullMethod, "/")
		if i := strings.Index(s, "/"); i > 0 {
			return s[:i]
		}
		if s != "" {
			return s
		}
		return cc.Target()
	}
}

// MethodLevelKey 方法级别键
// 返回示例: "/pkg.Service/Method"
func MethodLevelKey() KeyFunc {
	return func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string {
		return fullMethod
	}
}

// TargetLevelKey 连接目标级别键
// 返回示例: "etcd:///order-service"
func TargetLevelKey() KeyFunc {
	return func(ctx context.Context, fullMethod string, cc *grpc.ClientConn) string {
		return cc.Target()
	}
}

// ========================================
// 拦截器选项
// ========================================

// InterceptorOption 拦截器选项函数类型
type InterceptorOption func(*interceptorConfig)

// interceptorConfig 拦截器内部配置（非导出）
type interceptorConfig struct {
	keyFunc KeyFunc

	// breakOnCreate 流式调用中是否保护流的建立（默认开启）
	breakOnCreate bool

	// breakOnMessage 流式调用中是否保护每条消息的收发（默认关闭）
	// 长生命周期的流建议开启，否则建立后的故障不会反馈给熔断器
	breakOnMessage bool
}

func defaultInterceptorConfig() interceptorConfig {
	return interceptorConfig{
		keyFunc:       ServiceLevelKey(),
		breakOnCreate: true,
	}
}

// WithKeyFunc 设置熔断键生成函数
func WithKeyFunc(fn KeyFunc) InterceptorOption {
	return func(cfg *interceptorConfig) {
		cfg.keyFunc = fn
	}
}

// WithBreakOnCreate 设置是否保护流的建立
func WithBreakOnCreate(enabled bool) InterceptorOption {
	return func(cfg *interceptorConfig) {
		cfg.breakOnCreate = enabled
	}
}

// WithBreakOnMessage 设置是否保护流上每条消息的收发
func WithBreakOnMessage(enabled bool) InterceptorOption {
	return func(cfg *interceptorConfig) {
		cfg.breakOnMessage = enabled
	}
}

// ========================================
// 客户端拦截器
// ========================================

// UnaryClientInterceptor 返回 gRPC 一元调用客户端拦截器
// 按 KeyFunc 提取的键做熔断隔离，熔断打开时返回 codes.Unavailable
//
// 使用示例:
//
//	group, _ := fuse.NewGroup(cfg, fuse.WithLogger(logger))
//	conn, _ := grpc.NewClient(
//		"localhost:9001",
//		grpc.WithUnaryInterceptor(group.UnaryClientInterceptor()),
//	)
func (g *Group) UnaryClientInterceptor(opts ...InterceptorOption) grpc.UnaryClientInterceptor {
	cfg := defaultInterceptorConfig()
	for _, o := range opts {
		o(&cfg)
	}

	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		key := cfg.keyFunc(ctx, method, cc)

		if g.logger != nil {
			g.logger.Debug("unary call with circuit breaker",
				clog.String("breaker", key),
				clog.String("method", method))
		}

		_, err := g.Execute(ctx, key, func() (any, error) {
			return nil, invoker(ctx, method, req, reply, cc, callOpts...)
		})
		return toGRPCError(err)
	}
}

// StreamClientInterceptor 返回 gRPC 流式调用客户端拦截器
// 默认只保护流的建立；开启 WithBreakOnMessage 后，流上每条消息的收发
// 也会作为独立调用反馈给熔断器（io.EOF 是正常的流结束信号，算成功）
func (g *Group) StreamClientInterceptor(opts ...InterceptorOption) grpc.StreamClientInterceptor {
	cfg := defaultInterceptorConfig()
	for _, o := range opts {
		o(&cfg)
	}

	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, callOpts ...grpc.CallOption) (grpc.ClientStream, error) {
		key := cfg.keyFunc(ctx, method, cc)

		if g.logger != nil {
			g.logger.Debug("stream call with circuit breaker",
				clog.String("breaker", key),
				clog.String("method", method))
		}

		var stream grpc.ClientStream
		var err error
		if cfg.breakOnCreate {
			var result any
			result, err = g.Execute(ctx, key, func() (any, error) {
				return streamer(ctx, desc, cc, method, callOpts...)
			})
			if err == nil {
				stream = result.(grpc.ClientStream)
			}
		} else {
			stream, err = streamer(ctx, desc, cc, method, callOpts...)
		}
		if err != nil {
			return nil, toGRPCError(err)
		}

		if cfg.breakOnMessage {
			return &breakerClientStream{
				ClientStream: stream,
				group:        g,
				key:          key,
			}, nil
		}
		return stream, nil
	}
}

// breakerClientStream 包装 ClientStream，把每条消息的收发反馈给熔断器
type breakerClientStream struct {
	grpc.ClientStream
	group *Group
	key   string
}

func (s *breakerClientStream) SendMsg(m any) error {
	_, err := s.group.Execute(s.Context(), s.key, func() (any, error) {
		return nil, s.ClientStream.SendMsg(m)
	})
	return toGRPCError(err)
}

func (s *breakerClientStream) RecvMsg(m any) error {
	// io.EOF 是正常的流结束信号，对熔断器归一化为成功，但必须原样
	// 透传给调用方以结束读循环
	var recvErr error
	_, err := s.group.Execute(s.Context(), s.key, func() (any, error) {
		recvErr = s.ClientStream.RecvMsg(m)
		if recvErr != nil && !errors.Is(recvErr, io.EOF) {
			return nil, recvErr
		}
		return nil, nil
	})
	if err != nil {
		return toGRPCError(err)
	}
	return recvErr
}

// toGRPCError 将熔断拒绝错误映射为 gRPC 状态错误
func toGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if IsOpen(err) {
		return status.Error(codes.Unavailable, err.Error())
	}
	return err
}

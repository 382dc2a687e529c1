package fuse

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GinMiddleware 创建 Gin 熔断中间件
// 按路由维度做故障隔离：5xx 响应和 handler 写入的错误计为失败，
// 熔断打开时直接返回 503 并携带 Retry-After 响应头。
//
// 参数:
//   - group: 熔断器组
//   - keyFunc: 从请求中提取熔断键的函数，nil 时默认使用「方法 + 路由模板」
//
// 使用示例:
//
//	group, _ := fuse.NewGroup(cfg, fuse.WithLogger(logger))
//	r := gin.New()
//	r.Use(fuse.GinMiddleware(group, nil))
func GinMiddleware(group *Group, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string {
			// 使用路由模板而不是原始路径，避免路径参数打散熔断维度
			path := c.FullPath()
			if path == "" {
				path = c.Request.URL.Path
			}
			return c.Request.Method + " " + path
		}
	}

	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			c.Next()
			return
		}

		_, err := group.Execute(c.Request.Context(), key, func() (any, error) {
			c.Next()

			if len(c.Errors) > 0 {
				return nil, c.Errors.Last()
			}
			if status := c.Writer.Status(); status >= http.StatusInternalServerError {
				return nil, errors.New("upstream returned " + strconv.Itoa(status))
			}
			return nil, nil
		})

		if IsOpen(err) {
			var openErr *OpenStateError
			if errors.As(err, &openErr) && openErr.TimeUntilRetry > 0 {
				seconds := int(math.Ceil(openErr.TimeUntilRetry.Seconds()))
				c.Header("Retry-After", strconv.Itoa(seconds))
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "circuit breaker is open",
			})
			return
		}
	}
}

package ringcache

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// 全局日志，默认 Info 级别；逐请求的日志都在 Debug 级别输出
var logger atomic.Pointer[logrus.Logger]

func init() {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	logger.Store(l)
}

// Logger 返回包内使用的 logrus 实例
func Logger() *logrus.Logger {
	return logger.Load()
}

// SetLogger 替换全局日志实例，nil 会被忽略
func SetLogger(l *logrus.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// EnableLogging 打开逐请求日志（调试时使用，会降低性能）
func EnableLogging() {
	Logger().SetLevel(logrus.DebugLevel)
}

// DisableLogging 关闭逐请求日志（默认状态）
func DisableLogging() {
	Logger().SetLevel(logrus.InfoLevel)
}

// IsLoggingEnabled 检查是否启用逐请求日志
func IsLoggingEnabled() bool {
	return Logger().IsLevelEnabled(logrus.DebugLevel)
}

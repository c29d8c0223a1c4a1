package sysPrint

import (
	"errors"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	SYSTEM = "[SYSTEM]:"
	ERROR  = "[ERROR]:"
	FATAL  = "[FATAL]"
)

var (
	ErrUnknownMatcher       = ErrorMsg("Unknown matcher type.")
	ErrEmptyMaskToken       = ErrorMsg("Mask token cannot be empty.")
	ErrMaskTokenNewline     = ErrorMsg("Mask token cannot contain line breaks.")
	ErrNoDictionary         = ErrorMsg("No dictionary path configured.")
	ErrEmptyText            = ErrorMsg("Text cannot be blank.")
	ErrManagerAddrInvalid   = ErrorMsg("Manager address invalid.")
	ErrHttpAddrInvalid      = ErrorMsg("HTTP address invalid.")
	ErrCacheTTLNegative     = ErrorMsg("Cache ttl cannot be negative.")
	ErrDictionaryNotRegular = ErrorMsg("Dictionary path is not a regular file.")
)

var (
	stderrLogger atomic.Pointer[zap.Logger] // 只输出到 stderr
	teeLogger    atomic.Pointer[zap.Logger] // 同时输出到 stderr 和日志文件
	fileLogger   atomic.Pointer[zap.Logger] // 只输出到日志文件
	logFile      atomic.Pointer[os.File]
)

func init() {
	l := zap.New(newCore(zapcore.Lock(os.Stderr)))
	stderrLogger.Store(l)
	teeLogger.Store(l)
	fileLogger.Store(zap.NewNop())
}

func newCore(ws zapcore.WriteSyncer) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, zapcore.DebugLevel)
}

// Init 打开日志文件，之后 LogWrite* 系列方法会写入该文件，path 为空时只输出到 stderr
func Init(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	fileCore := newCore(zapcore.AddSync(f))
	fileLogger.Store(zap.New(fileCore))
	teeLogger.Store(zap.New(zapcore.NewTee(stderrLogger.Load().Core(), fileCore)))
	if old := logFile.Swap(f); old != nil {
		old.Close()
	}
	return nil
}

// Logger 返回同时写 stderr 与日志文件的 zap logger
func Logger() *zap.Logger {
	return teeLogger.Load()
}

func ErrorMsg(msg string) error {
	return errors.New(ERROR + msg)
}

func PrintlnErrorMsg(msg string, fields ...zap.Field) {
	stderrLogger.Load().Error(ERROR+msg, fields...)
}

func PrintlnAndLogWriteErrorMsg(msg string, fields ...zap.Field) {
	teeLogger.Load().Error(ERROR+msg, fields...)
}

func LogWriteErrorMsg(msg string, fields ...zap.Field) {
	fileLogger.Load().Error(ERROR+msg, fields...)
}

func PrintlnSystemMsg(msg string, fields ...zap.Field) {
	stderrLogger.Load().Info(SYSTEM+msg, fields...)
}

func PrintlnAndLogWriteSystemMsg(msg string, fields ...zap.Field) {
	teeLogger.Load().Info(SYSTEM+msg, fields...)
}

func LogWriteSystemMsg(msg string, fields ...zap.Field) {
	fileLogger.Load().Info(SYSTEM+msg, fields...)
}

// PrintlnAndLogWriteFatalMsg 记录后退出进程
func PrintlnAndLogWriteFatalMsg(msg string, fields ...zap.Field) {
	teeLogger.Load().Fatal(FATAL+msg, fields...)
}

func LogClose() {
	LogWriteSystemMsg("log close...")
	_ = teeLogger.Load().Sync()
	if f := logFile.Swap(nil); f != nil {
		fileLogger.Store(zap.NewNop())
		teeLogger.Store(stderrLogger.Load())
		f.Close()
	}
}

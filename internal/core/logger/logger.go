package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileRotate 文件输出与切割；Filename 为空时不写文件
type FileRotate struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Options struct {
	Level  string // debug / info / warn / error
	JSON   bool   // 生产环境用 JSON，开发环境用彩色控制台
	Rotate FileRotate
	// Output 默认 os.Stdout，测试时可替换
	Output zapcore.WriteSyncer
}

// New 返回 logger 与退出前调用的 flush 函数
func New(opt Options) (*zap.Logger, func()) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(opt.Level); err != nil {
		lvl = zapcore.InfoLevel
	}
	enc := encoder(opt.JSON)

	out := opt.Output
	if out == nil {
		out = zapcore.AddSync(os.Stdout)
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, out, lvl)}

	var rot *lumberjack.Logger
	if opt.Rotate.Filename != "" {
		rot = &lumberjack.Logger{
			Filename:   opt.Rotate.Filename,
			MaxSize:    max(1, opt.Rotate.MaxSizeMB),
			MaxBackups: max(0, opt.Rotate.MaxBackups),
			MaxAge:     max(0, opt.Rotate.MaxAgeDays),
			Compress:   opt.Rotate.Compress,
		}
		// 文件固定用 JSON，便于采集
		cores = append(cores, zapcore.NewCore(encoder(true), rotWriter{rot}, lvl))
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)

	zopts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if !opt.JSON {
		zopts = append(zopts, zap.Development())
	}
	l := zap.New(core, zopts...)
	return l, func() {
		_ = l.Sync()
		if rot != nil {
			_ = rot.Close()
		}
	}
}

func encoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// lumberjack 没有 Sync
type rotWriter struct{ *lumberjack.Logger }

func (w rotWriter) Sync() error { return nil }

type zapIOWriter struct {
	l     *zap.Logger
	level zapcore.Level
}

func (w *zapIOWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\r\n")
	if ce := w.l.Check(w.level, msg); ce != nil {
		ce.Write()
	}
	return len(p), nil
}

// ToWriter 供 gin.DefaultWriter 等只接受 io.Writer 的地方使用
func ToWriter(l *zap.Logger, level zapcore.Level) io.Writer {
	return &zapIOWriter{l: l, level: level}
}

// RedirectStdLog 标准库 log 输出转到 zap，返回恢复函数
func RedirectStdLog(l *zap.Logger, level zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l, level)
	if err != nil {
		return func() {}
	}
	return undo
}

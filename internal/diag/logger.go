package diag

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogDir is where NewLogger rotates files when no dir is given.
const DefaultLogDir = "logs"

// Logger writes one JSON object per event. Every event carries corr_id,
// comp and stage; errors add code. Safe for concurrent use.
type Logger struct {
	corrID string
	z      *zap.Logger
	sink   *RotatingFile
}

// ParseLevel maps debug|info|warn|error onto zap levels; anything else is info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.MessageKey = "msg"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	return cfg
}

// NewLogger logs at level into dir/hardlo-current.txt, rotating at 10 MiB.
func NewLogger(corrID, level, dir string) *Logger {
	if dir == "" {
		dir = DefaultLogDir
	}
	sink := NewRotatingFile(dir, 10*1024*1024)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(sink), zap.NewAtomicLevelAt(ParseLevel(level)))
	l := NewWithCore(corrID, core)
	l.sink = sink
	return l
}

// NewWithCore wraps an arbitrary core (tests use zaptest/observer).
func NewWithCore(corrID string, core zapcore.Core) *Logger {
	return &Logger{corrID: corrID, z: zap.New(core)}
}

// NewNop discards everything.
func NewNop() *Logger { return &Logger{z: zap.NewNop()} }

// CorrID returns the correlation id stamped on every event.
func (l *Logger) CorrID() string {
	if l == nil {
		return ""
	}
	return l.corrID
}

func (l *Logger) log(lv zapcore.Level, comp, stage, msg string, fields ...zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	ce := l.z.Check(lv, msg)
	if ce == nil {
		return
	}
	base := []zap.Field{zap.String("corr_id", l.corrID), zap.String("comp", comp), zap.String("stage", stage)}
	ce.Write(append(base, fields...)...)
}

func kvFields(kv map[string]string) []zap.Field {
	if len(kv) == 0 {
		return nil
	}
	return []zap.Field{zap.Any("kv", kv)}
}

// Start logs a start event and returns the timer for Finish.
func (l *Logger) Start(comp, msg string) *Timer {
	l.log(zapcore.InfoLevel, comp, "start", msg)
	return &Timer{l: l, comp: comp, bin: -1, t0: time.Now()}
}

// StartWithKV is Start with extra key/value context.
func (l *Logger) StartWithKV(comp, msg string, kv map[string]string) *Timer {
	l.log(zapcore.InfoLevel, comp, "start", msg, kvFields(kv)...)
	return &Timer{l: l, comp: comp, bin: -1, t0: time.Now()}
}

// StartBin logs at debug level; per-bin events are too many for info.
func (l *Logger) StartBin(comp, msg string, bin int) *Timer {
	l.log(zapcore.DebugLevel, comp, "start", msg, zap.Int("bin", bin))
	return &Timer{l: l, comp: comp, bin: bin, t0: time.Now()}
}

// Error is never sampled.
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWithKV(comp, code, msg, durSince, nil)
}

func (l *Logger) ErrorWithKV(comp, code, msg string, durSince *time.Time, kv map[string]string) {
	fs := []zap.Field{zap.String("code", code)}
	if durSince != nil {
		fs = append(fs, zap.Int64("dur_ms", time.Since(*durSince).Milliseconds()))
	}
	l.log(zapcore.ErrorLevel, comp, "error", msg, append(fs, kvFields(kv)...)...)
}

// Warn records a non-fatal condition such as a degenerate bin.
func (l *Logger) Warn(comp, msg string, kv map[string]string) {
	l.log(zapcore.WarnLevel, comp, "warn", msg, kvFields(kv)...)
}

// InfoFinish records finish against an existing start time.
func (l *Logger) InfoFinish(comp, msg string, start time.Time, count int64) {
	l.log(zapcore.InfoLevel, comp, "finish", msg, zap.Int64("dur_ms", time.Since(start).Milliseconds()), zap.Int64("count", count))
}

// DebugStart emits a start-type event only at debug level.
func (l *Logger) DebugStart(comp, msg string, kv map[string]string) {
	l.log(zapcore.DebugLevel, comp, "start", msg, kvFields(kv)...)
}

// Close flushes zap and releases the log file.
func (l *Logger) Close() error {
	if l == nil || l.z == nil {
		return nil
	}
	_ = l.z.Sync()
	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}

// Timer measures start -> finish.
type Timer struct {
	l    *Logger
	comp string
	bin  int
	t0   time.Time
}

// Finish logs finish with an optional count; bin timers log at debug level.
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	lv := zapcore.InfoLevel
	fs := []zap.Field{zap.Int64("dur_ms", time.Since(t.t0).Milliseconds()), zap.Int64("count", count)}
	if t.bin >= 0 {
		lv = zapcore.DebugLevel
		fs = append(fs, zap.Int("bin", t.bin))
	}
	t.l.log(lv, t.comp, "finish", msg, fs...)
}

// Elapsed returns the time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.t0)
}

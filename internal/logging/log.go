package logging

import (
    "encoding/json"
    "io"
    "os"
    "strings"
    "sync/atomic"
    "time"

    "github.com/example/bin-collector/internal/collectorcfg"
)

type Level int32

const (
    DebugLevel Level = iota
    InfoLevel
    WarnLevel
    ErrorLevel
)

type Field struct {
    Key   string
    Value any
}

func F(key string, value any) Field { return Field{Key: key, Value: value} }

func Err(err error) Field {
    if err == nil {
        return Field{Key: "err", Value: nil}
    }
    return Field{Key: "err", Value: err.Error()}
}

type event struct {
    TS     int64          `json:"ts"`
    Level  string         `json:"level"`
    Msg    string         `json:"msg"`
    Fields map[string]any `json:"fields,omitempty"`
}

var (
    logLevel atomic.Int32
    logCh    chan event
    dropped  atomic.Int64
    writer   io.Writer = os.Stdout
)

func parseLevel(s string) Level {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "debug":
        return DebugLevel
    case "warn":
        return WarnLevel
    case "error":
        return ErrorLevel
    default:
        return InfoLevel
    }
}

// Init starts the log drain goroutine and returns a stop function that
// flushes buffered events before returning.
func Init(cfg collectorcfg.LoggingConfig) func() {
    if cfg.Buffer <= 0 {
        cfg.Buffer = 4096
    }
    ch := make(chan event, cfg.Buffer)
    logCh = ch
    logLevel.Store(int32(parseLevel(cfg.Level)))
    stop := make(chan struct{})
    switch cfg.Output {
    case "stderr":
        writer = os.Stderr
    case "stdout", "":
        writer = os.Stdout
    default:
        if f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
            writer = f
        }
    }
    go drain(ch, stop, writer)
    return func() { close(stop) }
}

func drain(ch <-chan event, stop <-chan struct{}, w io.Writer) {
    tick := time.NewTicker(10 * time.Second)
    defer tick.Stop()
    enc := json.NewEncoder(w)
    flushDropped := func() {
        if n := dropped.Swap(0); n > 0 {
            _ = enc.Encode(event{TS: time.Now().UnixNano(), Level: "warn", Msg: "logs_dropped", Fields: map[string]any{"count": n}})
        }
    }
    for {
        select {
        case ev := <-ch:
            _ = enc.Encode(ev)
        case <-tick.C:
            flushDropped()
        case <-stop:
            for {
                select {
                case ev := <-ch:
                    _ = enc.Encode(ev)
                default:
                    flushDropped()
                    return
                }
            }
        }
    }
}

func log(lvl Level, msg string, fields ...Field) {
    if lvl < Level(logLevel.Load()) || logCh == nil {
        return
    }
    ev := event{TS: time.Now().UnixNano(), Level: levelString(lvl), Msg: msg}
    if len(fields) > 0 {
        fm := make(map[string]any, len(fields))
        for _, f := range fields {
            fm[f.Key] = f.Value
        }
        ev.Fields = fm
    }
    select {
    case logCh <- ev:
    default:
        dropped.Add(1)
    }
}

func levelString(l Level) string {
    switch l {
    case DebugLevel:
        return "debug"
    case WarnLevel:
        return "warn"
    case ErrorLevel:
        return "error"
    default:
        return "info"
    }
}

func Debug(msg string, fields ...Field) { log(DebugLevel, msg, fields...) }
func Info(msg string, fields ...Field)  { log(InfoLevel, msg, fields...) }
func Warn(msg string, fields ...Field)  { log(WarnLevel, msg, fields...) }
func Error(msg string, fields ...Field) { log(ErrorLevel, msg, fields...) }

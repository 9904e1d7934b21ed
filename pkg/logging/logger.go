package logging

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/niels/mdserve/pkg/config"
	"github.com/rs/zerolog"
)

var (
	// Global logger instance
	globalLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// InitGlobalLogger initializes the global logger with the specified debug level
func InitGlobalLogger(debug bool, cfg *config.Config) {
	var console io.Writer = os.Stderr
	if cfg != nil && cfg.Logging.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	output := console
	if cfg != nil && cfg.Logging.LogToFile {
		// Rotating file logger alongside the console
		fileLogger := &lumberjack.Logger{
			Filename:   cfg.Logging.LogFilePath,
			MaxSize:    cfg.Logging.MaxSize, // megabytes
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAge, // days
			Compress:   cfg.Logging.Compress,
		}
		output = io.MultiWriter(console, fileLogger)
	}

	globalLogger = NewLogger(debug, output)

	if cfg != nil && cfg.Logging.LogToFile {
		Info("Logging to file: " + cfg.Logging.LogFilePath)
	}
}

// NewLogger creates a new zerolog logger with the specified debug level
func NewLogger(debug bool, output io.Writer) zerolog.Logger {
	if output == nil {
		output = os.Stderr
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Logger()
	if debug {
		logger = logger.With().Caller().Logger()
	}

	return logger
}

// SetOutput replaces the global logger's writer, keeping the current level
func SetOutput(w io.Writer) {
	globalLogger = globalLogger.Output(w)
}

// Debug logs a message at debug level
func Debug(msg string) {
	globalLogger.Debug().Msg(msg)
}

// Info logs a message at info level
func Info(msg string) {
	globalLogger.Info().Msg(msg)
}

// InfoWith logs msg at info level with the given fields attached
func InfoWith(msg string, fields map[string]interface{}) {
	withFields(globalLogger.Info(), fields).Msg(msg)
}

// WarnWith logs msg at warn level with the given fields attached
func WarnWith(msg string, fields map[string]interface{}) {
	withFields(globalLogger.Warn(), fields).Msg(msg)
}

// ErrorWith logs msg at error level with the given fields attached
func ErrorWith(msg string, fields map[string]interface{}) {
	withFields(globalLogger.Error(), fields).Msg(msg)
}

// WithComponent returns a logger with the component field set
func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}

func withFields(event *zerolog.Event, fields map[string]interface{}) *zerolog.Event {
	for k, v := range fields {
		event = addField(event, k, v)
	}
	return event
}

// addField picks the typed zerolog field for value
func addField(event *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return event.Str(key, v)
	case int:
		return event.Int(key, v)
	case int64:
		return event.Int64(key, v)
	case uint64:
		return event.Uint64(key, v)
	case float64:
		return event.Float64(key, v)
	case bool:
		return event.Bool(key, v)
	case time.Time:
		return event.Time(key, v)
	case time.Duration:
		return event.Dur(key, v)
	case []string:
		return event.Strs(key, v)
	case error:
		return event.AnErr(key, v)
	default:
		return event.Interface(key, v)
	}
}

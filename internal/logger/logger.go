package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel representa os níveis de log
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String retorna a representação string do nível de log
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	case FATAL:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel converte "debug", "info", "warn", "error" em LogLevel. Valores
// desconhecidos viram INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

var (
	outputMu sync.RWMutex
	// stdout é reservado para a saída JSON Lines
	output      io.Writer = os.Stderr
	globalLevel           = INFO
)

// SetOutput troca o destino de todos os loggers (usado em testes).
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}

// SetGlobalLevel define o nível mínimo dos loggers criados a partir de agora.
func SetGlobalLevel(level LogLevel) {
	outputMu.Lock()
	defer outputMu.Unlock()
	globalLevel = level
}

func currentOutput() (io.Writer, LogLevel) {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return output, globalLevel
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// Logger é o logger estruturado por componente
type Logger struct {
	level     LogLevel
	component string
	fields    map[string]interface{}
	exit      func(int)
}

// NewLogger cria um novo logger
func NewLogger(component string) *Logger {
	_, level := currentOutput()
	return &Logger{
		level:     level,
		component: component,
		fields:    make(map[string]interface{}),
		exit:      os.Exit,
	}
}

// SetLevel define o nível mínimo de log
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *Logger) clone(extra int) *Logger {
	newLogger := &Logger{
		level:     l.level,
		component: l.component,
		fields:    make(map[string]interface{}, len(l.fields)+extra),
		exit:      l.exit,
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

// WithField adiciona um campo ao contexto do logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	newLogger := l.clone(1)
	newLogger.fields[key] = value
	return newLogger
}

// WithFields adiciona múltiplos campos ao contexto do logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newLogger := l.clone(len(fields))
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

// WithError adiciona um erro ao contexto do logger
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) log(level LogLevel, message string, err error) {
	if level < l.level {
		return
	}

	w, _ := currentOutput()
	zl := zerolog.New(w).With().Timestamp().Str("component", l.component).Logger()

	event := zl.WithLevel(level.zerolog())
	if len(l.fields) > 0 {
		event = event.Fields(l.fields)
	}
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(message)

	if level == FATAL {
		l.exit(1)
	}
}

// Debug registra uma mensagem de debug
func (l *Logger) Debug(message string) {
	l.log(DEBUG, message, nil)
}

// Debugf registra uma mensagem de debug formatada
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...), nil)
}

// Info registra uma mensagem informativa
func (l *Logger) Info(message string) {
	l.log(INFO, message, nil)
}

// Infof registra uma mensagem informativa formatada
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...), nil)
}

// Warn registra uma mensagem de aviso
func (l *Logger) Warn(message string) {
	l.log(WARN, message, nil)
}

// Error registra uma mensagem de erro
func (l *Logger) Error(message string, err error) {
	l.log(ERROR, message, err)
}

// Fatal registra uma mensagem fatal e termina o programa
func (l *Logger) Fatal(message string, err error) {
	l.log(FATAL, message, err)
}

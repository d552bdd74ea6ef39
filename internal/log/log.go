package log

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/speakeasy-api/scaffold/internal/charm/styles"
	"github.com/speakeasy-api/scaffold/internal/env"
	"github.com/speakeasy-api/scaffold/internal/utils"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug       Level = "debug"
	LevelInfo        Level = "info"
	LevelWarn        Level = "warn"
	LevelErr         Level = "error"
	LevelSuccess     Level = "success"
	loggerContextKey       = "scaffold-logger-context"
)

var Levels = []string{string(LevelDebug), string(LevelInfo), string(LevelWarn), string(LevelErr)}

var severity = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelErr:   3,
}

type Logger struct {
	level           Level
	fields          []zapcore.Field
	interactiveOnly bool
	formatter       func(l Logger, level Level, msg string, err error) string
	writer          io.Writer
}

// With returns a new context with the given logger added to the context.
func With(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, l)
}

// From returns the logger associated with the given context.
func From(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return l
	}
	return New()
}

func New() Logger {
	formatter := BasicFormatter

	if env.IsGithubAction() {
		formatter = GithubFormatter
	}

	level := LevelInfo
	if env.IsDebugMode() {
		level = LevelDebug
	}

	return Logger{
		level:     level,
		formatter: formatter,
		writer:    os.Stderr,
	}
}

// Discard returns a logger that writes nowhere.
func Discard() Logger {
	return New().WithWriter(io.Discard)
}

func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo:
		return LevelInfo, nil
	case LevelWarn:
		return LevelWarn, nil
	case LevelErr:
		return LevelErr, nil
	}
	return "", fmt.Errorf("unknown log level %q (available options: [%s])", s, strings.Join(Levels, ", "))
}

/**
 * Builders
 */

func (l Logger) WithLevel(level Level) Logger {
	l2 := l.Copy()
	l2.level = level
	return l2
}

func (l Logger) WithInteractiveOnly() Logger {
	l2 := l.Copy()
	l2.interactiveOnly = true
	return l2
}

func (l Logger) With(fields ...zapcore.Field) Logger {
	l2 := l.Copy()
	l2.fields = append(append([]zapcore.Field{}, l.fields...), fields...)
	return l2
}

func (l Logger) WithFormatter(formatter func(l Logger, level Level, msg string, err error) string) Logger {
	l2 := l.Copy()
	l2.formatter = formatter
	return l2
}

func (l Logger) WithWriter(w io.Writer) Logger {
	l2 := l.Copy()
	l2.writer = w
	return l2
}

func (l Logger) Copy() Logger {
	return Logger{
		level:           l.level,
		fields:          l.fields,
		interactiveOnly: l.interactiveOnly,
		formatter:       l.formatter,
		writer:          l.writer,
	}
}

func (l Logger) Level() Level {
	return l.level
}

func (l Logger) enabled(level Level) bool {
	return severity[level] >= severity[l.level]
}

/**
 * Logging methods
 */

func (l Logger) Debug(msg string, fields ...zapcore.Field) {
	if !l.enabled(LevelDebug) {
		return
	}
	l.log(LevelDebug, msg, fields)
}

func (l Logger) Debugf(format string, a ...any) {
	l.Debug(fmt.Sprintf(format, a...))
}

func (l Logger) Info(msg string, fields ...zapcore.Field) {
	if !l.enabled(LevelInfo) {
		return
	}
	l.log(LevelInfo, msg, fields)
}

func (l Logger) Infof(format string, a ...any) {
	l.Info(fmt.Sprintf(format, a...))
}

func (l Logger) Warn(msg string, fields ...zapcore.Field) {
	if !l.enabled(LevelWarn) {
		return
	}
	l.log(LevelWarn, msg, fields)
}

func (l Logger) Error(msg string, fields ...zapcore.Field) {
	l.log(LevelErr, msg, fields)
}

func (l Logger) Errorf(format string, a ...any) {
	l.Error(fmt.Sprintf(format, a...))
}

func (l Logger) Success(msg string, fields ...zapcore.Field) {
	l.log(LevelSuccess, msg, fields)
}

func (l Logger) Successf(format string, a ...any) {
	l.Success(fmt.Sprintf(format, a...))
}

func (l Logger) log(level Level, msg string, fields []zapcore.Field) {
	fields = append(append([]zapcore.Field{}, l.fields...), fields...)

	msg, err, fields := getMessage(msg, fields)

	l.Println(l.format(level, msg, err) + fieldsToJSON(fields))
}

func (l Logger) Printf(format string, a ...any) {
	l.Println(fmt.Sprintf(format, a...))
}

func (l Logger) PrintfStyled(style lipgloss.Style, format string, a ...any) {
	l.PrintlnUnstyled(style.Render(fmt.Sprintf(format, a...)))
}

func (l Logger) Println(s string) {
	l.Print(s + "\n")
}

func (l Logger) Print(s string) {
	if l.interactiveOnly && !utils.IsInteractive() {
		return
	}
	fmt.Fprint(l.writer, s)
}

func (l Logger) PrintlnUnstyled(a any) {
	if l.interactiveOnly && !utils.IsInteractive() {
		return
	}
	fmt.Fprintln(l.writer, a)
}

func (l Logger) format(level Level, msg string, err error) string {
	return l.formatter(l, level, msg, err)
}

/**
 * Formatters
 */

func BasicFormatter(l Logger, level Level, msg string, err error) string {
	switch level {
	case LevelDebug:
		return styles.Dimmed.Render(msg)
	case LevelInfo:
		return styles.Info.Render(msg)
	case LevelWarn:
		return styles.Warning.Render(msg)
	case LevelErr:
		return styles.Error.Render(msg)
	case LevelSuccess:
		return styles.Success.Render(msg)
	}

	return ""
}

func PrefixedFormatter(l Logger, level Level, msg string, err error) string {
	prefix := ""

	switch level {
	case LevelDebug:
		prefix = styles.Dimmed.Render("DEBUG\t")
	case LevelInfo, LevelSuccess:
		prefix = styles.Info.Render("INFO\t")
	case LevelWarn:
		prefix = styles.Warning.Render("WARN\t")
	case LevelErr:
		prefix = styles.Error.Render("ERROR\t")
	}

	return prefix + msg
}

// PlainFormatter renders messages without styling, mostly for tests and piped output.
func PlainFormatter(l Logger, level Level, msg string, err error) string {
	return msg
}

func GithubFormatter(l Logger, level Level, msg string, err error) string {
	switch level {
	case LevelWarn:
		attributes := getGithubAnnotationAttributes(err)
		return fmt.Sprintf("::warning%s::%s", attributes, msg)
	case LevelErr:
		attributes := getGithubAnnotationAttributes(err)
		return fmt.Sprintf("::error%s::%s", attributes, msg)
	}

	return msg
}

/**
 * Utilities
 */

// pathError is satisfied by errors that know which tree path they concern.
type pathError interface {
	error
	ErrorPath() string
}

func getGithubAnnotationAttributes(err error) string {
	var pErr pathError
	if errors.As(err, &pErr) {
		return fmt.Sprintf(" file=%s,title=Scaffold", strings.TrimPrefix(pErr.ErrorPath(), "/"))
	}
	return ""
}

func getMessage(msg string, fields []zapcore.Field) (string, error, []zapcore.Field) {
	fields, err := findError(fields)
	if err != nil {
		if msg == "" {
			msg = err.Error()
		} else {
			fields = append(fields, zap.Error(err))
		}
	}

	return msg, err, fields
}

func findError(fields []zapcore.Field) ([]zapcore.Field, error) {
	var err error
	filteredFields := []zapcore.Field{}
	for _, field := range fields {
		if field.Type == zapcore.ErrorType {
			if foundErr, ok := field.Interface.(error); ok {
				err = foundErr
			} else {
				filteredFields = append(filteredFields, field)
			}
		} else {
			filteredFields = append(filteredFields, field)
		}
	}

	return filteredFields, err
}

func fieldsToJSON(fields []zapcore.Field) string {
	jsonObj := map[string]any{}

	for _, field := range fields {
		switch field.Type {
		case zapcore.StringType:
			jsonObj[field.Key] = field.String
		case zapcore.Int64Type, zapcore.Int32Type, zapcore.Uint64Type, zapcore.Uint32Type:
			jsonObj[field.Key] = field.Integer
		case zapcore.BoolType:
			jsonObj[field.Key] = field.Integer == 1
		case zapcore.ErrorType:
			if err, ok := field.Interface.(error); ok {
				jsonObj[field.Key] = err.Error()
			} else {
				jsonObj[field.Key] = field.Interface
			}
		case zapcore.StringerType:
			jsonObj[field.Key] = fmt.Sprint(field.Interface)
		default:
			jsonObj[field.Key] = field.Interface
		}
	}

	if len(jsonObj) == 0 {
		return ""
	}

	data, err := json.Marshal(jsonObj)
	if err != nil {
		return ""
	}

	return "\t" + string(data)
}

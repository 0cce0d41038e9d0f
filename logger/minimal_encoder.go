package logger

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

type palette struct {
	time      string
	component string
	symbol    string
	number    string
	fg        string
	warn      string
	warnBg    string
	err       string
	errBg     string
}

var themes = map[string]palette{
	"everforest": {
		time:      "\x1b[38;5;107m",
		component: "\x1b[38;5;208m",
		symbol:    "\x1b[38;5;108m",
		number:    "\x1b[38;5;108m",
		fg:        "\x1b[38;5;223m",
		warn:      "\x1b[38;5;179m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;52m",
	},
	"gruvbox": {
		time:      "\x1b[38;5;108m",
		component: "\x1b[38;5;214m",
		symbol:    "\x1b[38;5;142m",
		number:    "\x1b[38;5;175m",
		fg:        "\x1b[38;5;223m",
		warn:      "\x1b[38;5;214m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;88m",
	},
	"plain": {},
}

var currentTheme = "everforest"

// SetTheme configures the color scheme for console output
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

// minimalEncoder is a compact console encoder.
// Format: "13:04:35  @  s.lsp  Completion served  12 items 3ms"
type minimalEncoder struct {
	zapcore.Encoder
}

var bufferPool = buffer.NewPool()

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
	}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	final := bufferPool.Get()

	final.AppendString(paint(c.time, ent.Time.Format("15:04:05")))

	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelString(ent.Level, c))
	}

	if symbol := symbolField(fields); symbol != "" {
		final.AppendString("  ")
		final.AppendString(paint(c.symbol, symbol))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(paint(c.component, abbreviateName(ent.LoggerName)))
	}

	final.AppendString("  ")
	final.AppendString(paint(c.fg, ent.Message))

	if values := extractFieldValues(fields, c); values != "" {
		final.AppendString("  ")
		final.AppendString(values)
	}

	final.AppendString("\n")
	return final, nil
}

func paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + colorReset
}

func levelString(level zapcore.Level, c palette) string {
	switch level {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.WarnLevel:
		return paint(colorBold+c.warnBg+c.warn, "WARN")
	default:
		return paint(colorBold+c.errBg+c.err, level.CapitalString())
	}
}

// abbreviateName shortens component names: server.lsp -> s.lsp
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

func symbolField(fields []zapcore.Field) string {
	for _, f := range fields {
		if f.Key == FieldSymbol && f.Type == zapcore.StringType {
			return f.String
		}
	}
	return ""
}

func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.BoolType:
		return fmt.Sprintf("%t", field.Integer == 1)
	case zapcore.Float64Type:
		return fmt.Sprintf("%g", math.Float64frombits(uint64(field.Integer)))
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// extractFieldValues renders well-known fields compactly and the rest as key=value.
// Input: {"query": "ali", "count": 3, "duration_ms": 2, "kind": "mention"}
// Output: "\"ali\" 3 items 2ms kind=mention"
func extractFieldValues(fields []zapcore.Field, c palette) string {
	var values []string

	for _, field := range fields {
		val := fieldValue(field)
		if val == "" {
			continue
		}
		switch field.Key {
		case FieldQuery:
			values = append(values, fmt.Sprintf("%q", val))
		case FieldCount:
			values = append(values, paint(c.number, val)+" items")
		case FieldDurationMS:
			values = append(values, paint(c.number, val)+"ms")
		case FieldAddress, FieldURI, FieldPath:
			values = append(values, val)
		case FieldError:
			values = append(values, paint(c.err, val))
		case FieldSymbol:
		default:
			values = append(values, field.Key+"="+val)
		}
	}

	return strings.Join(values, " ")
}

package logger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette holds the ANSI colors for one theme.
type palette struct {
	fg        string
	time      string
	component []string // rotated by name hash
	id        string
	number    string
	symbol    string
	warn      string
	warnBg    string
	err       string
	errBg     string
}

var themes = map[string]palette{
	"gruvbox": {
		fg:        "\x1b[38;5;223m",
		time:      "\x1b[38;5;108m",
		component: []string{"\x1b[38;5;208m", "\x1b[38;5;214m"},
		id:        "\x1b[38;5;109m",
		number:    "\x1b[38;5;175m",
		symbol:    "\x1b[38;5;142m",
		warn:      "\x1b[38;5;214m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;88m",
	},
	"everforest": {
		fg:        "\x1b[38;5;223m",
		time:      "\x1b[38;5;107m",
		component: []string{"\x1b[38;5;108m", "\x1b[38;5;65m", "\x1b[38;5;208m"},
		id:        "\x1b[38;5;109m",
		number:    "\x1b[38;5;108m",
		symbol:    "\x1b[38;5;108m",
		warn:      "\x1b[38;5;179m",
		warnBg:    "\x1b[48;5;58m",
		err:       "\x1b[38;5;167m",
		errBg:     "\x1b[48;5;52m",
	},
}

// Current active theme (set from config or EPICDASH_LOG_THEME)
var currentTheme = "everforest"

// SetTheme configures the color scheme for log output. Unknown themes are ignored.
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

func colorComponent(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	p := colors()
	return p.component[hash%len(p.component)]
}

// minimalEncoder implements a calm, compact console encoder with theme support
// Format: "13:04:35  ⇄  f.poller  Feed reconnected  interval=1s"
type minimalEncoder struct {
	zapcore.Encoder
	fields []zapcore.Field // accumulated via With()
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	fields := make([]zapcore.Field, len(enc.fields))
	copy(fields, enc.fields)
	return &minimalEncoder{Encoder: enc.Encoder.Clone(), fields: fields}
}

// AddString etc. are reached through zap's With(); capture them so the
// context fields render alongside the entry fields.
func (enc *minimalEncoder) AddString(key, value string) {
	enc.fields = append(enc.fields, zap.String(key, value))
}

func (enc *minimalEncoder) AddInt64(key string, value int64) {
	enc.fields = append(enc.fields, zap.Int64(key, value))
}

func (enc *minimalEncoder) AddBool(key string, value bool) {
	enc.fields = append(enc.fields, zap.Bool(key, value))
}

func (enc *minimalEncoder) AddFloat64(key string, value float64) {
	enc.fields = append(enc.fields, zap.Float64(key, value))
}

func (enc *minimalEncoder) AddUint64(key string, value uint64) {
	enc.fields = append(enc.fields, zap.Uint64(key, value))
}

func (enc *minimalEncoder) AddDuration(key string, value time.Duration) {
	enc.fields = append(enc.fields, zap.Duration(key, value))
}

func (enc *minimalEncoder) AddTime(key string, value time.Time) {
	enc.fields = append(enc.fields, zap.Time(key, value))
}

func (enc *minimalEncoder) AddArray(key string, value zapcore.ArrayMarshaler) error {
	enc.fields = append(enc.fields, zap.Array(key, value))
	return nil
}

func (enc *minimalEncoder) AddObject(key string, value zapcore.ObjectMarshaler) error {
	enc.fields = append(enc.fields, zap.Object(key, value))
	return nil
}

func (enc *minimalEncoder) AddReflected(key string, value interface{}) error {
	enc.fields = append(enc.fields, zap.Any(key, value))
	return nil
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	p := colors()
	final := buffer.NewPool().Get()

	final.AppendString(p.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only shown for WARN and above
	if ent.Level > zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	all := make([]zapcore.Field, 0, len(enc.fields)+len(fields))
	all = append(all, enc.fields...)
	all = append(all, fields...)

	symbol, rest := splitSymbol(all)
	if symbol != "" {
		final.AppendString("  ")
		final.AppendString(p.symbol + symbol + colorReset)
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(p.fg + ent.Message + colorReset)

	if s := formatFields(rest); s != "" {
		final.AppendString("  ")
		final.AppendString(s)
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for WARN/ERROR
func levelColorString(level zapcore.Level) string {
	p := colors()
	switch level {
	case zapcore.WarnLevel:
		return colorBold + p.warnBg + p.warn + "WARN" + colorReset
	default:
		return colorBold + p.errBg + p.err + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: feed.poller -> f.poller
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

func splitSymbol(fields []zapcore.Field) (string, []zapcore.Field) {
	symbol := ""
	rest := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Key == FieldSymbol && f.Type == zapcore.StringType {
			symbol = f.String
			continue
		}
		rest = append(rest, f)
	}
	return symbol, rest
}

// formatFields renders every field as key=value. Identifiers and durations
// get accent colors; nothing is dropped.
func formatFields(fields []zapcore.Field) string {
	if len(fields) == 0 {
		return ""
	}
	p := colors()

	m := zapcore.NewMapObjectEncoder()
	var order []string
	for _, f := range fields {
		if f.Type == zapcore.SkipType {
			continue
		}
		if _, seen := m.Fields[f.Key]; !seen {
			order = append(order, f.Key)
		}
		f.AddTo(m)
	}

	parts := make([]string, 0, len(order))
	for _, key := range order {
		val, ok := m.Fields[key]
		if !ok {
			continue
		}
		s := renderValue(val)
		switch key {
		case FieldClientID, FieldRequestID, FieldVariableID:
			s = p.id + s + colorReset
		case FieldWidget, FieldCount, FieldFailures:
			s = p.number + s + colorReset
		case FieldDurationMS:
			s = p.number + s + colorReset + "ms"
		}
		parts = append(parts, key+"="+s)
	}
	return strings.Join(parts, " ")
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = renderValue(item)
		}
		return "[" + strings.Join(items, ",") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = k + ":" + renderValue(val[k])
		}
		return "{" + strings.Join(items, ",") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}

package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// consoleSink is shared by a handler and every clone derived from it so
// lines from concurrent collections never interleave.
type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *consoleSink) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

// consoleHandler renders a header line per record followed by indented
// fields. Attributes bound with WithAttrs are flattened once, when bound.
type consoleHandler struct {
	sink      *consoleSink
	level     *slog.LevelVar
	addSource bool
	bound     []kv
	prefix    string
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{sink: &consoleSink{w: w}, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.bound = make([]kv, len(h.bound), len(h.bound)+len(attrs))
	copy(clone.bound, h.bound)
	for _, attr := range attrs {
		appendFlattened(&clone.bound, h.prefix, attr)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	fields := make([]kv, len(h.bound), len(h.bound)+record.NumAttrs())
	copy(fields, h.bound)
	record.Attrs(func(attr slog.Attr) bool {
		appendFlattened(&fields, h.prefix, attr)
		return true
	})
	fields = lastValueWins(fields)

	var buf bytes.Buffer
	buf.Grow(256 + 32*len(fields))
	h.writeHeader(&buf, record, fields)
	if record.Level < slog.LevelInfo {
		writeDebugFields(&buf, fields)
	} else {
		writeInfoFields(&buf, fields)
	}
	return h.sink.write(buf.Bytes())
}

// writeHeader emits "<time> LEVEL [component] Phase · Collection – message".
func (h *consoleHandler) writeHeader(buf *bytes.Buffer, record slog.Record, fields []kv) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ts.In(time.Local).Format(consoleTimeLayout))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))

	if component := fieldString(fields, FieldComponent); component != "" {
		buf.WriteString(" [" + component + "]")
	}
	if subject := FormatSubject(fieldString(fields, FieldPhase), fieldString(fields, FieldCollection)); subject != "" {
		buf.WriteString(" " + subject)
	}

	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	buf.WriteString(" – " + message)

	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')
}

func writeInfoFields(buf *bytes.Buffer, fields []kv) {
	shown, hidden := selectInfoFields(fields)
	for _, field := range shown {
		buf.WriteString("    - " + field.label + ": " + field.value + "\n")
	}
	switch {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
	}
}

func writeDebugFields(buf *bytes.Buffer, fields []kv) {
	for _, field := range fields {
		if field.key == FieldComponent {
			continue
		}
		buf.WriteString("    " + field.key + ": " + formatValue(field.value) + "\n")
	}
}

// FormatSubject builds the "Phase · Collection" subject of a console line.
func FormatSubject(phase, collection string) string {
	phase = capitalizeASCII(strings.TrimSpace(phase))
	collection = strings.TrimSpace(collection)
	switch {
	case phase == "":
		return collection
	case collection == "":
		return phase
	default:
		return phase + " · " + collection
	}
}

type kv struct {
	key   string
	value slog.Value
}

func fieldString(fields []kv, key string) string {
	for _, field := range fields {
		if field.key == key {
			return attrString(field.value)
		}
	}
	return ""
}

// lastValueWins keeps the first position of each key with its latest value,
// so context fields added at Handle time override bound ones.
func lastValueWins(fields []kv) []kv {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, field := range fields {
		if pos, seen := index[field.key]; seen {
			out[pos].value = field.value
			continue
		}
		index[field.key] = len(out)
		out = append(out, field)
	}
	return out
}

func appendFlattened(dst *[]kv, prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = joinKey(prefix, attr.Key)
		}
		for _, member := range value.Group() {
			appendFlattened(dst, next, member)
		}
		return
	}
	key := joinKey(prefix, attr.Key)
	if key == "" {
		return
	}
	*dst = append(*dst, kv{key: key, value: value})
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

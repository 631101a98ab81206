package stream

import (
	"bytes"
	"log/slog"

	"github.com/signadot/uistream/api"
	"github.com/signadot/uistream/debug"
	"github.com/signadot/uistream/metrics"
	"github.com/signadot/uistream/patch"
)

const maxLoggedLine = 200

// Decoder buffers partial lines across chunks and decodes complete lines
// into patches. It is not safe for concurrent use; each stream owns one.
type Decoder struct {
	buf         []byte
	line        int
	log         *slog.Logger
	metrics     *metrics.Metrics
	onMalformed func(*api.Error)
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithDecoderLogger sets the logger malformed lines are reported to.
func WithDecoderLogger(log *slog.Logger) DecoderOption {
	return func(d *Decoder) { d.log = log }
}

// WithDecoderMetrics counts malformed lines on m.
func WithDecoderMetrics(m *metrics.Metrics) DecoderOption {
	return func(d *Decoder) { d.metrics = m }
}

// WithMalformedHook calls fn for every line that fails to decode. The
// error has code api.ErrCodeMalformedPatchLine.
func WithMalformedHook(fn func(*api.Error)) DecoderOption {
	return func(d *Decoder) { d.onMalformed = fn }
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	return d
}

// Feed appends chunk to the pending buffer and returns the patches of every
// line completed by it, in line order. The trailing incomplete line stays
// buffered.
func (d *Decoder) Feed(chunk []byte) []patch.Patch {
	d.buf = append(d.buf, chunk...)
	var res []patch.Patch
	rest := d.buf
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			break
		}
		if p, ok := d.decodeLine(rest[:i]); ok {
			res = append(res, p)
		}
		rest = rest[i+1:]
	}
	if len(rest) == 0 {
		d.buf = d.buf[:0]
	} else if len(rest) != len(d.buf) {
		d.buf = append(d.buf[:0], rest...)
	}
	return res
}

// Flush decodes whatever is left in the buffer as a final line, for streams
// whose last line has no terminator. The buffer is empty afterwards.
func (d *Decoder) Flush() (patch.Patch, bool) {
	if len(d.buf) == 0 {
		return patch.Patch{}, false
	}
	line := d.buf
	d.buf = nil
	return d.decodeLine(line)
}

// Buffered returns the number of bytes waiting for a line terminator.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) decodeLine(line []byte) (patch.Patch, bool) {
	d.line++
	line = bytes.TrimSpace(bytes.TrimSuffix(line, []byte{'\r'}))
	if len(line) == 0 {
		return patch.Patch{}, false
	}
	if bytes.HasPrefix(line, []byte("//")) || line[0] == '#' {
		if debug.Decode() {
			debug.Logf("line %d: comment\n", d.line)
		}
		return patch.Patch{}, false
	}
	p, err := patch.Parse(line)
	if err != nil {
		d.malformed(line, err)
		return patch.Patch{}, false
	}
	if debug.Decode() {
		debug.Logf("line %d: %s\n", d.line, p)
	}
	return p, true
}

func (d *Decoder) malformed(line []byte, err error) {
	shown := line
	if len(shown) > maxLoggedLine {
		shown = shown[:maxLoggedLine]
	}
	d.log.Debug("skipping malformed patch line",
		"code", api.ErrCodeMalformedPatchLine,
		"line", d.line,
		"text", string(shown),
		"error", err)
	d.metrics.MalformedLine()
	if d.onMalformed != nil {
		d.onMalformed(api.WrapError(api.ErrCodeMalformedPatchLine, err, "line %d", d.line))
	}
}

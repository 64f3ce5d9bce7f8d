package neonhttp

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/valyala/bytebufferpool"
)

// DefaultChunkSize is the chunk size used by chunked stream I/O
// when no positive size is given.
const DefaultChunkSize = 1024

var (
	// ErrArgument is returned for invalid arguments such as an unknown
	// stream mode or a duplicate status code registration.
	ErrArgument = errors.New("invalid argument")

	// ErrIO is returned when a stream operation violates the stream mode,
	// would move the cursor out of bounds, or the stream is closed.
	ErrIO = errors.New("stream I/O error")

	// ErrStreamClosed is returned by every operation on a closed stream.
	// It wraps ErrIO.
	ErrStreamClosed = fmt.Errorf("%w: stream is closed", ErrIO)

	// ErrNoMetadata is returned by MetadataValue for unknown keys.
	ErrNoMetadata = errors.New("no such stream metadata")
)

// Mode is a stream open mode. It is fixed at construction and decides
// whether the stream is readable and writable.
type Mode string

// Supported stream modes. They follow fopen(3) naming.
const (
	ModeR     Mode = "r"
	ModeRPlus Mode = "r+"
	ModeW     Mode = "w"
	ModeWPlus Mode = "w+"
	ModeA     Mode = "a"
	ModeAPlus Mode = "a+"
	ModeX     Mode = "x"
	ModeXPlus Mode = "x+"
	ModeC     Mode = "c"
	ModeCPlus Mode = "c+"
)

// ParseMode validates s as a stream mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown stream mode %q", ErrArgument, s)
	}
	return m, nil
}

// Valid returns true if m is one of the supported modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeR, ModeRPlus, ModeW, ModeWPlus, ModeA, ModeAPlus, ModeX, ModeXPlus, ModeC, ModeCPlus:
		return true
	}
	return false
}

// Readable returns true if streams opened with m may be read.
func (m Mode) Readable() bool {
	switch m {
	case ModeR, ModeRPlus, ModeWPlus, ModeAPlus, ModeXPlus, ModeCPlus:
		return true
	}
	return false
}

// Writable returns true if streams opened with m may be written.
func (m Mode) Writable() bool {
	return m.Valid() && m != ModeR
}

func (m Mode) appends() bool {
	return m == ModeA || m == ModeAPlus
}

func (m Mode) truncates() bool {
	return m == ModeW || m == ModeWPlus || m == ModeX || m == ModeXPlus
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown modes are
// rejected with ErrArgument.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Stream is a seekable in-memory byte stream.
//
// The cursor always stays within [0, Size()]. Operations that would move
// it outside fail with ErrIO and leave the stream untouched.
//
// Stream instance MUST NOT be used from concurrently running goroutines.
// Close must be called when the stream is no longer needed, so the backing
// buffer may be reused.
type Stream struct {
	noCopy noCopy

	buf *bytebufferpool.ByteBuffer
	pos int

	mode     Mode
	readable bool
	writable bool
}

// NewStream returns an empty stream opened with the given mode.
func NewStream(mode Mode) (*Stream, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown stream mode %q", ErrArgument, string(mode))
	}
	return &Stream{
		buf:      acquireStreamBuffer(),
		mode:     mode,
		readable: mode.Readable(),
		writable: mode.Writable(),
	}, nil
}

// NewStreamBytes returns a stream holding a copy of b.
//
// Truncating modes (w, w+, x, x+) drop b. Append modes put the cursor
// at the end of the content, other modes at the start.
func NewStreamBytes(mode Mode, b []byte) (*Stream, error) {
	s, err := NewStream(mode)
	if err != nil {
		return nil, err
	}
	if !mode.truncates() {
		s.buf.B = append(s.buf.B, b...)
	}
	if mode.appends() {
		s.pos = len(s.buf.B)
	}
	return s, nil
}

// Mode returns the mode the stream was opened with.
func (s *Stream) Mode() Mode {
	return s.mode
}

// IsReadable returns true if the stream may be read.
// It is false once the stream is closed.
func (s *Stream) IsReadable() bool {
	return s.readable && s.buf != nil
}

// IsWritable returns true if the stream may be written.
// It is false once the stream is closed.
func (s *Stream) IsWritable() bool {
	return s.writable && s.buf != nil
}

// IsSeekable returns true. In-memory streams are always seekable.
func (s *Stream) IsSeekable() bool {
	return true
}

// Write writes p at the cursor and advances the cursor past it.
//
// Existing bytes are overwritten and the stream grows when p extends past
// its end. Streams opened in an append mode always write at the end.
//
// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	if err := s.checkWritable(); err != nil {
		return 0, err
	}
	pos := s.pos
	if s.mode.appends() {
		pos = len(s.buf.B)
	}
	b := s.buf.B
	n := copy(b[pos:], p)
	b = append(b, p[n:]...)
	s.buf.B = b
	s.pos = pos + len(p)
	return len(p), nil
}

// WriteString writes str at the cursor. See Write.
func (s *Stream) WriteString(str string) (int, error) {
	return s.Write(s2b(str))
}

// Read reads up to len(p) bytes from the cursor.
//
// io.EOF is returned when the cursor is at the end of the stream.
//
// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	if err := s.checkReadable(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.pos >= len(s.buf.B) {
		return 0, io.EOF
	}
	n := copy(p, s.buf.B[s.pos:])
	s.pos += n
	return n, nil
}

// ReadN returns up to n bytes from the cursor and advances the cursor
// by the number of returned bytes.
//
// Fewer bytes are returned when the stream ends first. An empty result
// at the end of the stream isn't an error.
func (s *Stream) ReadN(n int) ([]byte, error) {
	if err := s.checkReadable(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", ErrIO, n)
	}
	if avail := len(s.buf.B) - s.pos; n > avail {
		n = avail
	}
	p := make([]byte, n)
	copy(p, s.buf.B[s.pos:])
	s.pos += n
	return p, nil
}

// Seek moves the cursor according to whence, which must be one of
// io.SeekStart, io.SeekCurrent and io.SeekEnd.
//
// Seek fails when the resulting position is negative or past the end of
// the stream. The cursor isn't moved on failure.
//
// Seek implements io.Seeker.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.buf == nil {
		return 0, ErrStreamClosed
	}
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(s.pos)
	case io.SeekEnd:
		base = int64(len(s.buf.B))
	default:
		return int64(s.pos), fmt.Errorf("%w: invalid whence %d", ErrIO, whence)
	}
	pos := base + offset
	if pos < 0 || pos > int64(len(s.buf.B)) {
		return int64(s.pos), fmt.Errorf("%w: seek to %d is outside [0, %d]", ErrIO, pos, len(s.buf.B))
	}
	s.pos = int(pos)
	return pos, nil
}

// Rewind moves the cursor to the start of the stream.
func (s *Stream) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Tell returns the cursor position.
func (s *Stream) Tell() (int, error) {
	if s.buf == nil {
		return 0, ErrStreamClosed
	}
	return s.pos, nil
}

// EOF returns true if the cursor is at the end of the stream.
func (s *Stream) EOF() (bool, error) {
	if s.buf == nil {
		return false, ErrStreamClosed
	}
	return s.pos >= len(s.buf.B), nil
}

// Size returns the stream length in bytes.
func (s *Stream) Size() (int, error) {
	if s.buf == nil {
		return 0, ErrStreamClosed
	}
	return len(s.buf.B), nil
}

// Contents returns the bytes between the cursor and the end of the stream
// and moves the cursor to the end.
func (s *Stream) Contents() ([]byte, error) {
	if s.buf == nil {
		return nil, ErrStreamClosed
	}
	return s.ReadN(len(s.buf.B) - s.pos)
}

// String rewinds the stream and returns its whole content.
//
// String never fails: an empty string is returned for streams which
// can't be read.
func (s *Stream) String() string {
	if err := s.Rewind(); err != nil {
		return ""
	}
	b, err := s.ReadN(len(s.buf.B))
	if err != nil {
		return ""
	}
	return b2s(b)
}

// WriteChunked writes data in sequential chunks of at most chunkSize bytes.
//
// DefaultChunkSize is used when chunkSize isn't positive. The result is
// the same as a single Write(data).
func (s *Stream) WriteChunked(data []byte, chunkSize int) (int, error) {
	if err := s.checkWritable(); err != nil {
		return 0, err
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	written := 0
	for len(data) > 0 {
		chunk := data
		if len(chunk) > chunkSize {
			chunk = chunk[:chunkSize]
		}
		n, err := s.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		data = data[len(chunk):]
	}
	return written, nil
}

// ReadChunked reads the stream from the cursor to the end in chunks of
// at most chunkSize bytes and returns the concatenated chunks.
//
// The result is the same as Contents().
func (s *Stream) ReadChunked(chunkSize int) ([]byte, error) {
	if err := s.checkReadable(); err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	dst := make([]byte, 0, len(s.buf.B)-s.pos)
	for {
		chunk, err := s.ReadN(chunkSize)
		if err != nil {
			return dst, err
		}
		if len(chunk) == 0 {
			return dst, nil
		}
		dst = append(dst, chunk...)
	}
}

var copyBufPool = sync.Pool{
	New: func() any {
		return make([]byte, DefaultChunkSize)
	},
}

// ReadFrom writes everything read from r into the stream in
// DefaultChunkSize pieces.
//
// ReadFrom implements io.ReaderFrom.
func (s *Stream) ReadFrom(r io.Reader) (int64, error) {
	if err := s.checkWritable(); err != nil {
		return 0, err
	}
	vbuf := copyBufPool.Get()
	buf := vbuf.([]byte)
	defer copyBufPool.Put(vbuf)

	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := s.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// WriteTo writes the bytes between the cursor and the end of the stream
// to w in DefaultChunkSize pieces. The cursor follows the written bytes.
//
// WriteTo implements io.WriterTo.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	if err := s.checkReadable(); err != nil {
		return 0, err
	}
	var total int64
	for s.pos < len(s.buf.B) {
		start := s.pos
		end := min(start+DefaultChunkSize, len(s.buf.B))
		n, err := w.Write(s.buf.B[start:end])
		s.pos = start + n
		total += int64(n)
		if err != nil {
			return total, err
		}
		if n < end-start {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

// StreamMetadata is a snapshot of stream capabilities.
type StreamMetadata struct {
	Mode     Mode
	Readable bool
	Writable bool
	Seekable bool
}

// Metadata returns the stream capabilities.
func (s *Stream) Metadata() (StreamMetadata, error) {
	if s.buf == nil {
		return StreamMetadata{}, ErrStreamClosed
	}
	return StreamMetadata{
		Mode:     s.mode,
		Readable: s.readable,
		Writable: s.writable,
		Seekable: s.IsSeekable(),
	}, nil
}

// MetadataValue returns a single metadata field by its key: "mode",
// "readable", "writable" or "seekable".
//
// ErrNoMetadata is returned for unknown keys.
func (s *Stream) MetadataValue(key string) (any, error) {
	md, err := s.Metadata()
	if err != nil {
		return nil, err
	}
	switch key {
	case "mode":
		return md.Mode, nil
	case "readable":
		return md.Readable, nil
	case "writable":
		return md.Writable, nil
	case "seekable":
		return md.Seekable, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoMetadata, key)
}

// Close releases the backing buffer. The stream can't be used afterwards.
func (s *Stream) Close() error {
	if s.buf == nil {
		return ErrStreamClosed
	}
	releaseStreamBuffer(s.buf)
	s.buf = nil
	s.pos = 0
	return nil
}

func (s *Stream) checkReadable() error {
	if s.buf == nil {
		return ErrStreamClosed
	}
	if !s.readable {
		return fmt.Errorf("%w: stream opened with mode %q isn't readable", ErrIO, string(s.mode))
	}
	return nil
}

func (s *Stream) checkWritable() error {
	if s.buf == nil {
		return ErrStreamClosed
	}
	if !s.writable {
		return fmt.Errorf("%w: stream opened with mode %q isn't writable", ErrIO, string(s.mode))
	}
	return nil
}

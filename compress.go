package neonhttp

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/multierr"
)

// Supported compression levels.
const (
	CompressBestSpeed          = 1
	CompressBestCompression    = 9
	CompressDefaultCompression = 6
	CompressHuffmanOnly        = -2
)

// Brotli has its own level range.
const (
	CompressBrotliBestSpeed          = brotli.BestSpeed
	CompressBrotliBestCompression    = brotli.BestCompression
	CompressBrotliDefaultCompression = 4
)

// SupportedEncodings lists content codings in order of preference.
var SupportedEncodings = []string{EncodingBrotli, EncodingZstd, EncodingGzip, EncodingDeflate}

// IsSupportedEncoding returns true if the given content coding can be
// encoded and decoded.
func IsSupportedEncoding(encoding string) bool {
	switch strings.ToLower(encoding) {
	case EncodingGzip, EncodingDeflate, EncodingBrotli, EncodingZstd:
		return true
	}
	return false
}

func normalizeCompressLevel(level int) int {
	if level < CompressHuffmanOnly || level > CompressBestCompression {
		return CompressDefaultCompression
	}
	return level
}

func normalizeBrotliCompressLevel(level int) int {
	switch {
	case level == CompressDefaultCompression:
		return CompressBrotliDefaultCompression
	case level < CompressBrotliBestSpeed:
		return CompressBrotliBestSpeed
	case level > CompressBrotliBestCompression:
		return CompressBrotliBestCompression
	}
	return level
}

// newEncoder returns a writer encoding everything written to it into w.
// The writer must be closed to flush the encoded data.
func newEncoder(w io.Writer, encoding string, level int) (io.WriteCloser, error) {
	switch strings.ToLower(encoding) {
	case EncodingGzip:
		return gzip.NewWriterLevel(w, normalizeCompressLevel(level))
	case EncodingDeflate:
		return zlib.NewWriterLevel(w, normalizeCompressLevel(level))
	case EncodingBrotli:
		return brotli.NewWriterLevel(w, normalizeBrotliCompressLevel(level)), nil
	case EncodingZstd:
		zlevel := level
		if zlevel < 1 {
			zlevel = CompressDefaultCompression
		}
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(zlevel)))
	}
	return nil, fmt.Errorf("%w: unsupported content encoding %q", ErrArgument, encoding)
}

// newDecoder returns a reader decoding r.
func newDecoder(r io.Reader, encoding string) (io.ReadCloser, error) {
	switch strings.ToLower(encoding) {
	case EncodingGzip:
		return gzip.NewReader(r)
	case EncodingDeflate:
		return zlib.NewReader(r)
	case EncodingBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case EncodingZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	}
	return nil, fmt.Errorf("%w: unsupported content encoding %q", ErrArgument, encoding)
}

// AppendEncodedBytes appends src encoded with the given content coding
// to dst and returns the extended dst.
func AppendEncodedBytes(dst, src []byte, encoding string, level int) ([]byte, error) {
	w := &byteSliceWriter{b: dst}
	zw, err := newEncoder(w, encoding, level)
	if err != nil {
		return dst, err
	}
	_, err = zw.Write(src)
	err = multierr.Append(err, zw.Close())
	return w.b, err
}

// AppendDecodedBytes appends src decoded with the given content coding
// to dst and returns the extended dst.
func AppendDecodedBytes(dst, src []byte, encoding string) ([]byte, error) {
	zr, err := newDecoder(&byteSliceReader{b: src}, encoding)
	if err != nil {
		return dst, err
	}
	w := &byteSliceWriter{b: dst}
	_, err = io.Copy(w, zr)
	err = multierr.Append(err, zr.Close())
	return w.b, err
}

type byteSliceWriter struct {
	b []byte
}

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

type byteSliceReader struct {
	b []byte
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}

// CompressBody replaces the response body with its encoded form and sets
// the Content-Encoding header.
//
// The level is taken from the config the response was built with.
func (resp *Response) CompressBody(encoding string) error {
	if !IsSupportedEncoding(encoding) {
		return fmt.Errorf("%w: unsupported content encoding %q", ErrArgument, encoding)
	}
	if resp.body == nil {
		return ErrStreamClosed
	}
	if err := resp.body.Rewind(); err != nil {
		return err
	}
	data, err := resp.body.Contents()
	if err != nil {
		return err
	}

	buf := compressBufferPool.Get()
	defer compressBufferPool.Put(buf)
	if err = encodeTo(buf, data, encoding, resp.compressLevel); err != nil {
		return err
	}

	s, err := NewStreamBytes(ModeCPlus, buf.B)
	if err != nil {
		return err
	}
	if err = resp.SetBody(s); err != nil {
		return err
	}
	resp.Header.Set(HeaderContentEncoding, strings.ToLower(encoding))
	resp.Header.Del(HeaderContentLength)
	if !hasHeaderValue(resp.Header.Peek(HeaderVary), HeaderAcceptEncoding) {
		resp.Header.Add(HeaderVary, HeaderAcceptEncoding)
	}
	return nil
}

func encodeTo(buf *bytebufferpool.ByteBuffer, data []byte, encoding string, level int) error {
	zw, err := newEncoder(buf, encoding, level)
	if err != nil {
		return err
	}
	_, err = zw.Write(data)
	return multierr.Append(err, zw.Close())
}

func hasHeaderValue(s []byte, value string) bool {
	var vs headerValueScanner
	vs.b = s
	for vs.next() {
		if equalFold(vs.value, s2b(value)) {
			return true
		}
	}
	return false
}

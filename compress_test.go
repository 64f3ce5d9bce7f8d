package neonhttp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

var compressTestcases = func() []string {
	a := []string{
		"",
		"foobar",
		"выфаодлодл одлфываыв sd2 k34",
	}
	bigS := createFixedBody(1e4)
	a = append(a, string(bigS))
	return a
}()

func createFixedBody(bodySize int) []byte {
	var b []byte
	for i := 0; len(b) < bodySize; i++ {
		b = AppendUint(b, i%10)
	}
	return b[:bodySize]
}

func TestEncodedBytesSerial(t *testing.T) {
	t.Parallel()

	for _, encoding := range SupportedEncodings {
		if err := testEncodedBytes(encoding); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEncodedBytesConcurrent(t *testing.T) {
	t.Parallel()

	for _, encoding := range SupportedEncodings {
		encoding := encoding
		if err := testConcurrent(10, func() error { return testEncodedBytes(encoding) }); err != nil {
			t.Fatal(err)
		}
	}
}

func testEncodedBytes(encoding string) error {
	for _, s := range compressTestcases {
		for _, level := range []int{CompressBestSpeed, CompressDefaultCompression, CompressBestCompression} {
			if err := testEncodedBytesSingleCase(s, encoding, level); err != nil {
				return err
			}
		}
	}
	return nil
}

func testEncodedBytesSingleCase(s, encoding string, level int) error {
	prefix := []byte("foobar")
	encoded, err := AppendEncodedBytes(prefix, []byte(s), encoding, level)
	if err != nil {
		return fmt.Errorf("unexpected error when encoding with %q: %w", encoding, err)
	}
	if string(encoded[:len(prefix)]) != string(prefix) {
		return fmt.Errorf("unexpected prefix when encoding with %q: %q. Expecting %q", encoding, encoded[:len(prefix)], prefix)
	}

	decoded, err := AppendDecodedBytes(prefix, encoded[len(prefix):], encoding)
	if err != nil {
		return fmt.Errorf("unexpected error when decoding with %q: %w", encoding, err)
	}
	if string(decoded[:len(prefix)]) != string(prefix) {
		return fmt.Errorf("unexpected prefix when decoding with %q: %q. Expecting %q", encoding, decoded[:len(prefix)], prefix)
	}
	if string(decoded[len(prefix):]) != s {
		return fmt.Errorf("unexpected string after decoding with %q: %q. Expecting %q", encoding, decoded[len(prefix):], s)
	}
	return nil
}

func testConcurrent(concurrency int, f func() error) error {
	ch := make(chan error, concurrency)
	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			err := f()
			if err != nil {
				err = fmt.Errorf("error in goroutine %d: %w", idx, err)
			}
			ch <- err
		}(i)
	}
	for i := 0; i < concurrency; i++ {
		select {
		case err := <-ch:
			if err != nil {
				return err
			}
		case <-time.After(10 * time.Second):
			return fmt.Errorf("timeout")
		}
	}
	return nil
}

func TestUnsupportedEncoding(t *testing.T) {
	t.Parallel()

	if IsSupportedEncoding("compress") {
		t.Fatalf("unexpected support for %q", "compress")
	}
	if !IsSupportedEncoding("GZIP") {
		t.Fatalf("expecting support for %q", "GZIP")
	}
	if _, err := AppendEncodedBytes(nil, []byte("x"), "compress", CompressDefaultCompression); !errors.Is(err, ErrArgument) {
		t.Fatalf("unexpected error %v. Expecting %v", err, ErrArgument)
	}
	if _, err := AppendDecodedBytes(nil, []byte("x"), "identity"); !errors.Is(err, ErrArgument) {
		t.Fatalf("unexpected error %v. Expecting %v", err, ErrArgument)
	}
}

func TestResponseCompressBody(t *testing.T) {
	t.Parallel()

	body := string(createFixedBody(5000))
	for _, encoding := range SupportedEncodings {
		resp, err := NewResponse(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Header.Set("Content-Length", "5000")
		resp.Header.Set("Vary", "Origin")
		if _, err = resp.Write([]byte(body)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err = resp.CompressBody(encoding); err != nil {
			t.Fatalf("unexpected error for %q: %v", encoding, err)
		}
		if v := resp.Header.Get("Content-Encoding"); v != encoding {
			t.Fatalf("unexpected Content-Encoding %q. Expecting %q", v, encoding)
		}
		if resp.Header.Has("Content-Length") {
			t.Fatalf("unexpected Content-Length after compression")
		}
		if v := resp.Header.Get("Vary"); v != "Origin, Accept-Encoding" {
			t.Fatalf("unexpected Vary %q. Expecting %q", v, "Origin, Accept-Encoding")
		}

		encoded := resp.Body().String()
		if len(encoded) >= len(body) {
			t.Fatalf("unexpected encoded size %d for %q. Expecting less than %d", len(encoded), encoding, len(body))
		}
		decoded, err := AppendDecodedBytes(nil, []byte(encoded), encoding)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(decoded) != body {
			t.Fatalf("unexpected decoded body for %q", encoding)
		}

		resp.Header.Del("Content-Encoding")
		if err = resp.CompressBody(encoding); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v := resp.Header.Get("Vary"); v != "Origin, Accept-Encoding" {
			t.Fatalf("unexpected Vary %q after second compression", v)
		}
		resp.Close()
	}
}

func TestResponseCompressBodyErrors(t *testing.T) {
	t.Parallel()

	resp, err := NewResponse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err = resp.CompressBody("compress"); !errors.Is(err, ErrArgument) {
		t.Fatalf("unexpected error %v. Expecting %v", err, ErrArgument)
	}
	resp.Close()
	if err = resp.CompressBody(EncodingGzip); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("unexpected error %v. Expecting %v", err, ErrStreamClosed)
	}
}

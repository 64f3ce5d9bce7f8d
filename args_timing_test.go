package neonhttp

import (
	"testing"
)

func BenchmarkArgsParse(b *testing.B) {
	var a Args
	s := []byte("foo=bar&baz=qqq&aaaaa=bbbb")
	for i := 0; i < b.N; i++ {
		a.ParseBytes(s)
	}
}

func BenchmarkArgsParseDuplicates(b *testing.B) {
	var a Args
	s := []byte("foo=1&foo=2&foo=3&bar=4")
	for i := 0; i < b.N; i++ {
		a.ParseBytes(s)
	}
}

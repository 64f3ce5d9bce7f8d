/*
Package neonhttp provides an in-memory HTTP message model.

Neonhttp provides the following features:

  - Header holds message headers with case-insensitive lookups, insertion
    order and normalized comma separated list values.

  - Stream is a seekable in-memory body stream opened with an fopen(3)
    style mode, which decides whether it may be read and written.
    Bodies may be copied in bounded chunks.

  - URI parses URI references into percent-decoded components and builds
    new ones through value-returning With* methods.

  - Request is built from a RequestContext supplied by the transport.
    Its body is copied into a Stream and may be decoded from gzip,
    deflate, br and zstd.

  - Response carries a status code checked against a StatusRegistry.
    Status changes are signalled to a ResponseSink, and Send writes the
    whole response to it. Bodies may be compressed with CompressBody.

Config controls how messages are built. See the neonhttpadaptor package
for serving neonhttp handlers from net/http and the neonfx package for
go.uber.org/fx integration.
*/
package neonhttp

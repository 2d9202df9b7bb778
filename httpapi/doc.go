// Package httpapi exposes the authentication engine over HTTP. Every
// response uses the envelope {"code": <int>, "message": <string>,
// "data": <object|null>} with code mirroring the HTTP status.
//
// The package owns request decoding, error-to-status mapping, and
// observability (zap request logs, Sentry capture on 5xx). It makes no
// authentication decisions of its own.
package httpapi

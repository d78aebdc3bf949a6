// Package httputil provides the standard response envelope and JSON
// request helpers shared by handlers and middleware.
//
// Every response, success or failure, is serialized as an Envelope:
//
//	{"status": true, "code": 200, "data": {...}, "msg": "ok"}
//
// The envelope's code is reused as the HTTP status when it is a valid
// one; anything else falls back to 500. Failure paths throughout the
// service go through WriteEnvelope so clients always see the same shape.
package httputil

// Package http implements the HTTP transport of the sync server.
//
// It wires the chi router, the request handlers of the sync API, and the
// middleware in front of them: trace ids, access logging, gzip, and caller
// authentication from bearer tokens. Handlers decode requests, hand them to
// the service layer, and render service errors as JSON error bodies.
package http

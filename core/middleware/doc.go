// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: rejects requests whose X-API-Key header does not match the
//     configured key. An empty key disables the check.
//   - rayid: tags every request with a RayID (a UUID unless the caller sent
//     one in X-Ray-ID), stored in the context and echoed in the response.
//
// The start command registers rayid first so that every log line of a request,
// including auth failures, carries the id.
package middleware

// Package merge exposes the cluster merge over HTTP.
//
// Rows can be merged inline, or the service reads a table from the storage
// bucket or the database, merges it with core/reconcile and writes the result
// back. Object merges go through a plan cache, so repeated requests for the
// same object and columns reuse the last result until the cache TTL expires.
//
// # HTTP Endpoints
//
//   - POST /merge : merges the rows in the request body.
//   - GET /merge/objects : lists stored tables (supports ?prefix=).
//   - POST /merge/objects/<name> : merges a stored table and writes
//     <base>.merged.<ext> (supports ?output= and ?dry_run=true).
//   - GET /merge/objects/<name> : returns the cached plan of a stored table.
//   - POST /merge/tables/:name : merges a database table into <table>_merged.
//
// Every endpoint except the inline merge accepts ?entity=, ?columns=a,b and
// ?output_column= to override the configured columns.
package merge

// Package httpclient builds the outgoing requests and the tuned HTTP client
// used by the load engine.
//
// A [RequestBuilder] is constructed once per run from the validated config
// and stamps out one request per attempt; the payload comes from a
// [BodySource] (inline bytes, a file, or empty) so repeated sends never
// share a reader. [NewClient] returns an http.Client whose transport is
// sized for sustained concurrent load.
package httpclient

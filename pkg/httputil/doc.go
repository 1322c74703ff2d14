// Package httputil fetches entity trees from HTTP data sources.
//
// A [Client] issues one GET per tree with a short timeout. Transient
// failures (network errors, 429 and 5xx responses) are retried with the
// backoff of [cache.RetryWithBackoff]; other statuses fail at once with a
// coded error.
//
// Two payload shapes are accepted: a bare entity tree, or the envelope
// returned by the organization API,
//
//	{"code": 20000, "message": "ok", "data": { ...tree... }}
//
// where any code other than [SuccessCode] is an error carrying the
// message. Fetched trees are stored in the configured cache for
// [cache.TTLSource], so repeated renders of the same URL stay offline.
package httputil

// Package outdoor fetches the outdoor dewpoint that indoor readings are
// compared against. The source is any HTTP endpoint returning a bare number
// in °C, typically the collector's /outdoor-dewpoint.
//
// A fetch is a single GET; there is no retry.
package outdoor

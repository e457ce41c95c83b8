// Package utils provides the shared low-level transport helpers used by all
// provider adapters. It covers retrying HTTP POST/GET requests with the
// typed error taxonomy ([ai.APIError], [ai.NetworkError]), optional proxy
// indirection for providers that cannot be called directly, and incremental
// decoding of streaming response bodies.
//
// Key entry points: [DoPost] and [DoGet] for raw requests with the body left
// open, [DoPostSync] for synchronous JSON round-trips, and [SSEScanner] /
// [NDJSONScanner] for the two streaming wire formats.
package utils

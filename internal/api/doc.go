// Package api is the REST client for the chat backend.
//
// All endpoints live under /v0 and authenticate with the raw session token in
// the Authorization header. The push connection lives at /v0/ws and is
// handled by package connection.
package api

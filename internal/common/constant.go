// Package common contains shared constants, sentinel errors and random
// helpers used across the assessment backend.
package common

// AuthorizationHeaderName is the HTTP header that may carry a session token
// in place of the JSON "token" field.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// SessionTokenSize is the number of random bytes behind every session token.
const SessionTokenSize = 32

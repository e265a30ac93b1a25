// Package otp implements time-based one-time passwords (RFC 6238) with
// explicit counter accounting, so callers can persist the last accepted
// counter and reject replayed codes.
package otp

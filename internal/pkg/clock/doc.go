// Package clock provides an injectable time source.
//
// Production code depends on Clocker instead of calling time.Now directly,
// which lets tests pin the clock to exercise expiry and drift behavior.
package clock

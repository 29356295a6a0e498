// Package session resolves who is calling and distributes session changes.
//
// A request carries an HS256 bearer token from the auth backend. The Resolver
// verifies it and pairs it with the Google provider token held for the user,
// yielding a State with Gmail and Calendar connection flags. Sign-in, sign-out
// and token refresh are announced on a Bus, in-process by default or over
// Redis pub/sub when several instances serve the same users.
package session

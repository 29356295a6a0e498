// Package google provides OAuth2 configuration and per-user token access for the
// Gmail and Calendar clients.
//
// Provider tokens are held in an mcp-oauth storage.TokenStore keyed by user id.
// The TokenProvider refreshes expired access tokens through the configured
// oauth2.Config and writes the refreshed token back to the store. A user without a
// stored token, or whose refresh is rejected, gets a credential-expired error; the
// only recovery is signing in again.
package google

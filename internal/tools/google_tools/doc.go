// Package google_tools provides MCP tools for reconnecting Google.
//
// A user whose Google token expired or was revoked gets an error pointing to
// the sign-in page from every email and calendar tool. These tools let an AI
// assistant walk the user through the same consent flow:
//  1. Call google_get_auth_url to get the consent URL
//  2. The user visits the URL and grants access
//  3. Call google_save_auth_code with the code Google shows
//
// The new token replaces the stored one and cached Google clients are
// dropped, so the next tool call uses it.
package google_tools

package google

import "slices"

// Scope URLs requested at sign-in.
const (
	ScopeGmailReadonly  = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeGmailModify    = "https://www.googleapis.com/auth/gmail.modify"
	ScopeGmailSend      = "https://www.googleapis.com/auth/gmail.send"
	ScopeGmailCompose   = "https://www.googleapis.com/auth/gmail.compose"
	ScopeGmailLabels    = "https://www.googleapis.com/auth/gmail.labels"
	ScopeCalendar       = "https://www.googleapis.com/auth/calendar"
	ScopeCalendarEvents = "https://www.googleapis.com/auth/calendar.events"
)

// DefaultOAuthScopes are the scopes requested when a user signs in.
//
// The scopes provide access to:
//   - Gmail: read, modify, send, compose, labels
//   - Google Calendar: calendars and events
//   - OpenID Connect identity (user id and email)
var DefaultOAuthScopes = []string{
	"openid",
	"email",
	"profile",

	ScopeGmailReadonly,
	ScopeGmailModify,
	ScopeGmailSend,
	ScopeGmailCompose,
	ScopeGmailLabels,

	ScopeCalendar,
	ScopeCalendarEvents,
}

// gmailScopes grant enough to list and tag messages.
var gmailScopes = []string{ScopeGmailReadonly, ScopeGmailModify, "https://mail.google.com/"}

// calendarScopes grant enough to list and edit events.
var calendarScopes = []string{ScopeCalendar, ScopeCalendarEvents}

// HasGmailScope reports whether granted includes a scope that can read Gmail.
func HasGmailScope(granted []string) bool {
	return containsAny(granted, gmailScopes)
}

// HasCalendarScope reports whether granted includes a scope that can read Calendar.
func HasCalendarScope(granted []string) bool {
	return containsAny(granted, calendarScopes)
}

func containsAny(granted, wanted []string) bool {
	for _, s := range wanted {
		if slices.Contains(granted, s) {
			return true
		}
	}
	return false
}

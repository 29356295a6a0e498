// Package calendar provides a client for interacting with the Google Calendar API.
//
// It lists events in a time window (recurring events expanded, ordered by start
// time), lists events changed since a point in time including cancelled ones for
// the activity feed, and creates, replaces and deletes events. Errors are mapped
// into the internal/errors taxonomy.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, calendar.Config{}, option.WithHTTPClient(hc))
//	if err != nil {
//	    return err
//	}
//
//	// List upcoming events
//	events, err := client.ListEvents(ctx, calendar.PrimaryCalendar, time.Now(), time.Now().AddDate(0, 0, 7))
package calendar

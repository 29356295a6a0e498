// Package gmail provides a client for the parts of the Gmail API the dashboard
// reads and writes.
//
// The client covers:
//   - Paged message listing (page token, label ids, search query, page size)
//   - Metadata fetch for a set of message ids as a bounded concurrent fan-out
//   - Threads ordered oldest to newest
//   - Sending plain text or HTML mail
//   - Label changes (read/unread, archive)
//
// Every error leaving the client has been mapped into the internal/errors
// taxonomy: a 401 or 403 from any endpoint is credential-expired, everything else
// is a remote error carrying the server message.
//
// Example usage:
//
//	client, err := gmail.NewClient(ctx, gmail.Config{Concurrency: 8}, option.WithHTTPClient(hc))
//	if err != nil {
//	    return err
//	}
//
//	page, err := client.ListMessageIDs(ctx, gmail.ListOptions{LabelIDs: []string{"INBOX"}, MaxResults: 20})
//	if err != nil {
//	    return err
//	}
//	msgs, err := client.GetMessages(ctx, page.IDs)
package gmail

package gmail

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/instrumentation"
)

const (
	me = "me"

	// DefaultConcurrency bounds the metadata fan-out when Config leaves it unset.
	DefaultConcurrency = 8

	// maxPageSize is the largest page the messages.list endpoint accepts.
	maxPageSize = 500
)

var metadataHeaders = []string{"Subject", "From", "To", "Date"}

// Config tunes a Client.
type Config struct {
	// Concurrency bounds parallel metadata fetches.
	Concurrency int
	Metrics     *instrumentation.Metrics
}

// Client wraps the Gmail Users service
type Client struct {
	svc         *gmail.UsersService
	concurrency int
	metrics     *instrumentation.Metrics
}

// NewClient creates a Gmail client. Authentication comes from opts, normally
// option.WithHTTPClient with a per-user OAuth client.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Client{
		svc:         svc.Users,
		concurrency: concurrency,
		metrics:     cfg.Metrics,
	}, nil
}

// call runs one Gmail request inside a span, records its outcome and maps the
// error into the domain taxonomy.
func (c *Client) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation)
	defer span.End()

	start := time.Now()
	err := apperrors.FromGoogle(fn(ctx), "gmail."+operation)
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, instrumentation.StatusOf(err), time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

// ListMessageIDs returns one page of message ids.
func (c *Client) ListMessageIDs(ctx context.Context, opts ListOptions) (*Page, error) {
	req := c.svc.Messages.List(me)
	if opts.PageToken != "" {
		req = req.PageToken(opts.PageToken)
	}
	if len(opts.LabelIDs) > 0 {
		req = req.LabelIds(opts.LabelIDs...)
	}
	if opts.Query != "" {
		req = req.Q(opts.Query)
	}
	if opts.MaxResults > 0 {
		req = req.MaxResults(min(opts.MaxResults, maxPageSize))
	}

	var res *gmail.ListMessagesResponse
	err := c.call(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		var err error
		res, err = req.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	page := &Page{
		IDs:                make([]string, 0, len(res.Messages)),
		NextPageToken:      res.NextPageToken,
		ResultSizeEstimate: res.ResultSizeEstimate,
	}
	for _, m := range res.Messages {
		page.IDs = append(page.IDs, m.Id)
	}
	return page, nil
}

// GetMessage fetches the metadata of one message.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	var msg *gmail.Message
	err := c.call(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Messages.Get(me, id).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toMessage(msg), nil
}

// GetMessages fetches metadata for ids concurrently and returns them in the
// order of ids. A message that no longer exists leaves a nil slot; any other
// failing fetch fails the whole call.
func (c *Client) GetMessages(ctx context.Context, ids []string) ([]*Message, error) {
	out := make([]*Message, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			msg, err := c.GetMessage(gctx, id)
			if apperrors.CodeOf(err) == apperrors.CodeNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			out[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetThread returns the messages of a thread ordered oldest to newest by
// internal date, with plain text bodies.
func (c *Client) GetThread(ctx context.Context, threadID string) ([]*Message, error) {
	if threadID == "" {
		return nil, apperrors.Validation("thread id is required")
	}

	var thread *gmail.Thread
	err := c.call(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		thread, err = c.svc.Threads.Get(me, threadID).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	msgs := make([]*Message, 0, len(thread.Messages))
	for _, m := range thread.Messages {
		msg := toMessage(m)
		msg.Body = extractBody(m.Payload)
		msgs = append(msgs, msg)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].InternalDate.Before(msgs[j].InternalDate)
	})
	return msgs, nil
}

// ModifyLabels adds and removes labels on one message.
func (c *Client) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	if id == "" {
		return apperrors.Validation("message id is required")
	}
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	return c.call(ctx, instrumentation.OperationModify, func(ctx context.Context) error {
		_, err := c.svc.Messages.Modify(me, id, req).Context(ctx).Do()
		return err
	})
}

// MarkRead removes the UNREAD label from a message.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.ModifyLabels(ctx, id, nil, []string{LabelUnread})
}

// MarkUnread adds the UNREAD label to a message.
func (c *Client) MarkUnread(ctx context.Context, id string) error {
	return c.ModifyLabels(ctx, id, []string{LabelUnread}, nil)
}

// Archive removes a message from the inbox.
func (c *Client) Archive(ctx context.Context, id string) error {
	return c.ModifyLabels(ctx, id, nil, []string{LabelInbox})
}

func toMessage(m *gmail.Message) *Message {
	msg := &Message{
		ID:           m.Id,
		ThreadID:     m.ThreadId,
		Snippet:      m.Snippet,
		LabelIDs:     m.LabelIds,
		Unread:       slices.Contains(m.LabelIds, LabelUnread),
		InternalDate: time.UnixMilli(m.InternalDate).UTC(),
	}
	if m.Payload != nil {
		msg.Subject = HeaderValue(m, "Subject")
		msg.From = HeaderValue(m, "From")
		msg.To = HeaderValue(m, "To")
		msg.Date = HeaderValue(m, "Date")
	}
	return msg
}

// HeaderValue returns the first value of header on m, matched case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

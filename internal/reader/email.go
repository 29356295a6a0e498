package reader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/tagdeck/internal/gmail"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/listcache"
	"github.com/teemow/tagdeck/internal/logging"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/tagfilter"
)

// Email is a Gmail message joined with its locally owned star state and tags.
type Email struct {
	ID           string      `json:"id"`
	ThreadID     string      `json:"thread_id"`
	Subject      string      `json:"subject"`
	From         string      `json:"from"`
	To           string      `json:"to"`
	Date         string      `json:"date"`
	Snippet      string      `json:"snippet"`
	LabelIDs     []string    `json:"label_ids"`
	Unread       bool        `json:"unread"`
	InternalDate time.Time   `json:"internal_date"`
	Starred      bool        `json:"is_starred"`
	Tags         []store.Tag `json:"tags"`
}

// EmailID returns e.ID.
func EmailID(e Email) string { return e.ID }

// EmailTagIDs returns the ids of e's tags.
func EmailTagIDs(e Email) []string { return TagIDs(e.Tags) }

func emailFromMessage(m *gmail.Message) Email {
	return Email{
		ID:           m.ID,
		ThreadID:     m.ThreadID,
		Subject:      m.Subject,
		From:         m.From,
		To:           m.To,
		Date:         m.Date,
		Snippet:      m.Snippet,
		LabelIDs:     m.LabelIDs,
		Unread:       m.Unread,
		InternalDate: m.InternalDate,
		Tags:         []store.Tag{},
	}
}

// MessageSource is the part of the Gmail client the email reader needs.
type MessageSource interface {
	ListMessageIDs(ctx context.Context, opts gmail.ListOptions) (*gmail.Page, error)
	GetMessages(ctx context.Context, ids []string) ([]*gmail.Message, error)
}

// EmailStore is the part of the tag store the email reader needs.
type EmailStore interface {
	store.EmailStore
	store.AssociationStore
}

// EmailReaderConfig configures an EmailReader.
type EmailReaderConfig struct {
	Store    EmailStore
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
	PageSize int64
	// ServerSideAll evaluates ALL-mode filters with the store's grouped query.
	ServerSideAll bool
}

// EmailReader reads email lists for every view mode.
type EmailReader struct {
	store         EmailStore
	logger        *slog.Logger
	metrics       *instrumentation.Metrics
	pageSize      int64
	serverSideAll bool
}

// NewEmailReader creates an EmailReader.
func NewEmailReader(cfg EmailReaderConfig) *EmailReader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &EmailReader{
		store:         cfg.Store,
		logger:        logger,
		metrics:       cfg.Metrics,
		pageSize:      pageSize,
		serverSideAll: cfg.ServerSideAll,
	}
}

// Loader returns the list cache loader for userID's mailbox.
//
// The ids of the list come from Gmail in paged and search mode and from the tag
// store in the tag modes. Only ids the view has not cached are fetched from
// Gmail and merged with their stored star state and tags.
func (r *EmailReader) Loader(userID string, src MessageSource) listcache.Loader[Email] {
	return func(ctx context.Context, req listcache.Request) (*listcache.Result[Email], error) {
		ids, next, err := r.listIDs(ctx, userID, src, req.State)
		if err != nil {
			return nil, err
		}
		ids = store.Dedupe(ids)

		missing := req.Missing(ids)
		listing, err := r.Fetch(ctx, userID, src, missing)
		if err != nil {
			return nil, err
		}

		fetched := make(map[string]Email, len(listing.Items))
		for _, e := range listing.Items {
			fetched[e.ID] = e
		}
		return &listcache.Result[Email]{
			IDs:           ids,
			NextPageToken: next,
			Fetched:       fetched,
			TagsDegraded:  listing.TagsDegraded,
		}, nil
	}
}

// Fetch gets the messages for ids and merges in their star state and tags.
// The metadata fan-out fails as a whole; the tag lookup degrades.
func (r *EmailReader) Fetch(ctx context.Context, userID string, src MessageSource, ids []string) (*Listing[Email], error) {
	if len(ids) == 0 {
		return &Listing[Email]{Items: []Email{}}, nil
	}

	msgs, err := src.GetMessages(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Email, 0, len(msgs))
	for _, m := range msgs {
		if m != nil {
			items = append(items, emailFromMessage(m))
		}
	}
	if missing := len(ids) - len(items); missing > 0 {
		r.logger.WarnContext(ctx, "skipped emails missing from gmail",
			logging.UserHash(userID),
			logging.Count(missing))
	}

	lookup := func(ctx context.Context, ids []string) (map[string]store.EmailMeta, error) {
		return r.store.EmailMetas(ctx, userID, ids)
	}
	merged, degraded := Merge(ctx, r.logger, userID, store.KindEmail, items, EmailID, lookup,
		func(e Email, meta store.EmailMeta) Email {
			e.Starred = meta.Starred
			e.Tags = nonNil(meta.Tags)
			return e
		})
	return &Listing[Email]{Items: merged, TagsDegraded: degraded}, nil
}

func (r *EmailReader) listIDs(ctx context.Context, userID string, src MessageSource, st listcache.State) ([]string, string, error) {
	switch st.Params.Mode {
	case listcache.ModePaged:
		page, err := src.ListMessageIDs(ctx, gmail.ListOptions{
			PageToken:  st.Cursor,
			LabelIDs:   []string{gmail.LabelInbox},
			MaxResults: r.pageSize,
		})
		if err != nil {
			return nil, "", err
		}
		return page.IDs, page.NextPageToken, nil

	case listcache.ModeSearching:
		page, err := src.ListMessageIDs(ctx, gmail.ListOptions{
			Query:      st.Params.Query,
			MaxResults: r.pageSize,
		})
		if err != nil {
			return nil, "", err
		}
		return page.IDs, "", nil

	case listcache.ModeLegacyTagView:
		ids, err := r.store.EmailIDsByTagName(ctx, userID, st.Params.Tag)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list emails tagged %q: %w", st.Params.Tag, err)
		}
		return ids, "", nil

	case listcache.ModeMultiTagView:
		ids, err := MatchingIDs(ctx, r.store, r.metrics, store.KindEmail, userID, st.Params.Filter, r.serverSideAll)
		if err != nil {
			return nil, "", err
		}
		return ids, "", nil

	default:
		return nil, "", fmt.Errorf("unsupported view mode %q", st.Params.Mode)
	}
}

// MatchingIDs returns the ids of kind items that pass sel, evaluated from the
// association rows of the selected tags. With serverSideAll an ALL selection is
// evaluated by the store's grouped query instead. Both paths order ids by
// their newest matching association, most recent first.
func MatchingIDs(
	ctx context.Context,
	s store.AssociationStore,
	metrics *instrumentation.Metrics,
	kind store.Kind,
	userID string,
	sel tagfilter.Selection,
	serverSideAll bool,
) ([]string, error) {
	if sel.Empty() {
		return []string{}, nil
	}

	if serverSideAll && sel.Mode() == tagfilter.ModeAll {
		metrics.RecordFilterEvaluation(ctx, string(kind), string(sel.Mode()), instrumentation.EvaluationServer)
		ids, err := s.ItemIDsMatchingAll(ctx, kind, userID, sel.TagIDs())
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate tag filter: %w", err)
		}
		return ids, nil
	}

	metrics.RecordFilterEvaluation(ctx, string(kind), string(sel.Mode()), instrumentation.EvaluationClient)
	rows, err := s.AssociationsForTags(ctx, kind, userID, sel.TagIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load tag associations: %w", err)
	}
	order := make([]string, len(rows))
	for i, row := range rows {
		order[i] = row.ItemID
	}
	return tagfilter.OrderedIDs(tagfilter.MatchingItemIDs(rows, sel), order), nil
}

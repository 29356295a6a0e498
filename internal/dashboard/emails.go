package dashboard

import (
	"context"
	"fmt"
	"slices"
	"time"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/gmail"
	"github.com/teemow/tagdeck/internal/listcache"
	"github.com/teemow/tagdeck/internal/reader"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/tagfilter"
)

// Page navigation requests.
const (
	PageNext = "next"
	PagePrev = "prev"
)

// EmailQuery selects what an email view shows.
type EmailQuery struct {
	// ViewID distinguishes several views of one user, such as browser tabs.
	ViewID string
	Mode   listcache.Mode
	Query  string
	Tag    string
	Filter tagfilter.Selection
	// Page is PageNext, PagePrev or empty for the current page.
	Page string
}

// EmailPage is the visible state of an email view.
type EmailPage struct {
	Mode           listcache.Mode    `json:"mode"`
	Query          string            `json:"query,omitempty"`
	Tag            string            `json:"tag,omitempty"`
	FilterTags     []string          `json:"filter_tags,omitempty"`
	FilterMode     tagfilter.Mode    `json:"filter_mode,omitempty"`
	Items          []reader.Email    `json:"items"`
	Selection      []string          `json:"selection"`
	HasNext        bool              `json:"has_next"`
	HasPrev        bool              `json:"has_prev"`
	Banner         *listcache.Banner `json:"banner,omitempty"`
	ReauthRequired bool              `json:"reauth_required"`
	TagsDegraded   bool              `json:"tags_degraded"`
}

func newEmailPage(snap *listcache.Snapshot[reader.Email]) *EmailPage {
	p := snap.State.Params
	page := &EmailPage{
		Mode:           p.Mode,
		Query:          p.Query,
		Tag:            p.Tag,
		Items:          snap.Items,
		Selection:      snap.Selection,
		HasNext:        snap.HasNext,
		HasPrev:        snap.HasPrev,
		Banner:         snap.Banner,
		ReauthRequired: snap.ReauthRequired,
		TagsDegraded:   snap.TagsDegraded,
	}
	if p.Mode == listcache.ModeMultiTagView {
		page.FilterTags = p.Filter.TagIDs()
		page.FilterMode = p.Filter.Mode()
	}
	if page.Items == nil {
		page.Items = []reader.Email{}
	}
	return page
}

// ListEmails loads the view described by q. Changing the mode, query, tag or
// filter starts from the first page; otherwise q.Page moves along the cursor
// chain or, when empty, the current page is reloaded from the cache.
func (s *Service) ListEmails(ctx context.Context, userID string, q EmailQuery) (*EmailPage, error) {
	src, err := s.clients.Mailbox(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := s.emailView(userID, q.ViewID)
	load := s.emails.Loader(userID, src)
	params := listcache.Params{Mode: q.Mode, Query: q.Query, Tag: q.Tag, Filter: q.Filter}

	var snap *listcache.Snapshot[reader.Email]
	switch {
	case !params.Equal(view.State().Params) || !view.Snapshot().Loaded:
		snap, err = view.SetParams(ctx, params, load)
	case q.Page == PageNext:
		snap, err = view.NextPage(ctx, load)
	case q.Page == PagePrev:
		snap, err = view.PrevPage(ctx, load)
	case q.Page == "":
		snap, err = view.Reload(ctx, load)
	default:
		return nil, apperrors.Validationf("invalid page %q (must be %q or %q)", q.Page, PageNext, PagePrev)
	}
	if err != nil {
		return nil, err
	}
	return newEmailPage(snap), nil
}

// RefreshEmails drops the view's cache and reloads the first page of its
// current mode.
func (s *Service) RefreshEmails(ctx context.Context, userID, viewID string) (*EmailPage, error) {
	src, err := s.clients.Mailbox(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap, err := s.emailView(userID, viewID).Refresh(ctx, s.emails.Loader(userID, src))
	if err != nil {
		return nil, err
	}
	return newEmailPage(snap), nil
}

// EmailView returns the visible state of a view without loading.
func (s *Service) EmailView(userID, viewID string) *EmailPage {
	return newEmailPage(s.emailView(userID, viewID).Snapshot())
}

// SetSelection replaces the selected email ids of a view.
func (s *Service) SetSelection(userID, viewID string, ids []string) []string {
	v := s.emailView(userID, viewID)
	v.SetSelection(ids)
	return v.Selection()
}

// Thread returns a thread's messages oldest first.
func (s *Service) Thread(ctx context.Context, userID, threadID string) ([]*gmail.Message, error) {
	src, err := s.clients.Mailbox(ctx, userID)
	if err != nil {
		return nil, err
	}
	return src.GetThread(ctx, threadID)
}

// SendEmail sends msg after checking its recipients.
func (s *Service) SendEmail(ctx context.Context, userID string, msg *gmail.EmailMessage) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	src, err := s.clients.Mailbox(ctx, userID)
	if err != nil {
		return "", err
	}
	return src.SendEmail(ctx, msg)
}

// TaggedToday returns the emails that got a tag since the start of today in loc.
func (s *Service) TaggedToday(ctx context.Context, userID string, loc *time.Location) (*reader.Listing[reader.Email], error) {
	if loc == nil {
		loc = time.UTC
	}
	ids, err := s.store.EmailIDsTaggedSince(ctx, userID, store.StartOfDay(s.now().In(loc)))
	if err != nil {
		return nil, fmt.Errorf("failed to list emails tagged today: %w", err)
	}
	src, err := s.clients.Mailbox(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.emails.Fetch(ctx, userID, src, store.Dedupe(ids))
}

// EmailState is the local state of one email after a mutation.
type EmailState struct {
	ID       string      `json:"id"`
	Starred  bool        `json:"is_starred"`
	Unread   bool        `json:"unread"`
	LabelIDs []string    `json:"label_ids,omitempty"`
	Tags     []store.Tag `json:"tags"`
}

// currentEmail returns the pre-mutation copy of an email: the cached copy of
// the given view when present, else the stored metadata.
func (s *Service) currentEmail(ctx context.Context, userID, viewID, emailID string) (reader.Email, error) {
	if e, ok := s.emailView(userID, viewID).Get(emailID); ok {
		return e, nil
	}
	for _, v := range s.views.Views(viewPrefix(userID)) {
		if e, ok := v.Get(emailID); ok {
			return e, nil
		}
	}
	metas, err := s.store.EmailMetas(ctx, userID, []string{emailID})
	if err != nil {
		return reader.Email{}, fmt.Errorf("failed to read email state: %w", err)
	}
	meta := metas[emailID]
	return reader.Email{ID: emailID, ThreadID: meta.ThreadID, Starred: meta.Starred, Tags: cloneTags(meta.Tags)}, nil
}

// ToggleStar flips the star of an email optimistically.
func (s *Service) ToggleStar(ctx context.Context, userID, viewID, emailID string) (*EmailState, error) {
	if emailID == "" {
		return nil, apperrors.Validation("email id is required")
	}
	pre, err := s.currentEmail(ctx, userID, viewID, emailID)
	if err != nil {
		return nil, err
	}
	starred := !pre.Starred

	err = s.execute(ctx, s.views.Views(viewPrefix(userID)), command{
		name:    "email.toggle_star",
		emailID: emailID,
		apply:   func(e *reader.Email) { e.Starred = starred },
		undo:    func(e *reader.Email, pre reader.Email) { e.Starred = pre.Starred },
		commit: func(ctx context.Context) error {
			return s.store.SetStarred(ctx, userID, emailID, pre.ThreadID, starred)
		},
	})
	if err != nil {
		return nil, err
	}

	post := pre
	post.Starred = starred
	return emailState(post), nil
}

// ToggleEmailTag attaches or detaches a tag optimistically, depending on
// whether the email carried it before.
func (s *Service) ToggleEmailTag(ctx context.Context, userID, viewID, emailID, tagID string) (*EmailState, error) {
	if emailID == "" || tagID == "" {
		return nil, apperrors.Validation("email id and tag id are required")
	}
	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}
	pre, err := s.currentEmail(ctx, userID, viewID, emailID)
	if err != nil {
		return nil, err
	}

	attach := !hasTag(pre.Tags, tagID)
	post := cloneTags(pre.Tags)
	if attach {
		post = append(post, *tag)
	} else {
		post = slices.DeleteFunc(post, func(t store.Tag) bool { return t.ID == tagID })
	}

	err = s.execute(ctx, s.views.Views(viewPrefix(userID)), command{
		name:    "email.toggle_tag",
		emailID: emailID,
		apply: func(e *reader.Email) {
			if attach && !hasTag(e.Tags, tagID) {
				e.Tags = append(cloneTags(e.Tags), *tag)
			}
			if !attach {
				e.Tags = slices.DeleteFunc(cloneTags(e.Tags), func(t store.Tag) bool { return t.ID == tagID })
			}
		},
		undo: func(e *reader.Email, pre reader.Email) {
			i := slices.IndexFunc(pre.Tags, func(t store.Tag) bool { return t.ID == tagID })
			switch {
			case attach && i < 0:
				e.Tags = slices.DeleteFunc(cloneTags(e.Tags), func(t store.Tag) bool { return t.ID == tagID })
			case !attach && i >= 0 && !hasTag(e.Tags, tagID):
				e.Tags = append(cloneTags(e.Tags), pre.Tags[i])
			}
		},
		commit: func(ctx context.Context) error {
			if !attach {
				return s.store.DetachTag(ctx, store.KindEmail, userID, emailID, tagID)
			}
			if pre.ThreadID != "" {
				if err := s.store.UpsertEmail(ctx, userID, emailID, pre.ThreadID); err != nil {
					return err
				}
			}
			return s.store.AttachTag(ctx, store.KindEmail, userID, emailID, tagID)
		},
	})
	if err != nil {
		return nil, err
	}

	result := pre
	result.Tags = post
	return emailState(result), nil
}

// Label changes applied by ModifyEmail.
const (
	ActionMarkRead   = "mark_read"
	ActionMarkUnread = "mark_unread"
	ActionArchive    = "archive"
)

// ModifyEmail marks an email read or unread or archives it, optimistically.
func (s *Service) ModifyEmail(ctx context.Context, userID, viewID, emailID, action string) (*EmailState, error) {
	var add, remove []string
	switch action {
	case ActionMarkRead:
		remove = []string{gmail.LabelUnread}
	case ActionMarkUnread:
		add = []string{gmail.LabelUnread}
	case ActionArchive:
		remove = []string{gmail.LabelInbox}
	default:
		return nil, apperrors.Validationf("unknown action %q", action)
	}
	if emailID == "" {
		return nil, apperrors.Validation("email id is required")
	}

	src, err := s.clients.Mailbox(ctx, userID)
	if err != nil {
		return nil, err
	}
	pre, err := s.currentEmail(ctx, userID, viewID, emailID)
	if err != nil {
		return nil, err
	}

	relabel := func(labels []string) []string {
		out := slices.DeleteFunc(slices.Clone(labels), func(l string) bool { return slices.Contains(remove, l) })
		for _, l := range add {
			if !slices.Contains(out, l) {
				out = append(out, l)
			}
		}
		return out
	}

	err = s.execute(ctx, s.views.Views(viewPrefix(userID)), command{
		name:    "email." + action,
		emailID: emailID,
		apply: func(e *reader.Email) {
			e.LabelIDs = relabel(e.LabelIDs)
			e.Unread = slices.Contains(e.LabelIDs, gmail.LabelUnread)
		},
		undo: func(e *reader.Email, pre reader.Email) {
			labels := slices.Clone(e.LabelIDs)
			for _, l := range add {
				if !slices.Contains(pre.LabelIDs, l) {
					labels = slices.DeleteFunc(labels, func(x string) bool { return x == l })
				}
			}
			for _, l := range remove {
				if slices.Contains(pre.LabelIDs, l) && !slices.Contains(labels, l) {
					labels = append(labels, l)
				}
			}
			e.LabelIDs = labels
			e.Unread = slices.Contains(labels, gmail.LabelUnread)
		},
		commit: func(ctx context.Context) error {
			return src.ModifyLabels(ctx, emailID, add, remove)
		},
	})
	if err != nil {
		return nil, err
	}

	post := pre
	post.LabelIDs = relabel(pre.LabelIDs)
	post.Unread = slices.Contains(post.LabelIDs, gmail.LabelUnread)
	return emailState(post), nil
}

func emailState(e reader.Email) *EmailState {
	return &EmailState{
		ID:       e.ID,
		Starred:  e.Starred,
		Unread:   e.Unread,
		LabelIDs: e.LabelIDs,
		Tags:     cloneTags(e.Tags),
	}
}

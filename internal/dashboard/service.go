package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/tagdeck/internal/activity"
	"github.com/teemow/tagdeck/internal/calendar"
	"github.com/teemow/tagdeck/internal/gmail"
	"github.com/teemow/tagdeck/internal/instrumentation"
	"github.com/teemow/tagdeck/internal/listcache"
	"github.com/teemow/tagdeck/internal/logging"
	"github.com/teemow/tagdeck/internal/reader"
	"github.com/teemow/tagdeck/internal/session"
	"github.com/teemow/tagdeck/internal/store"
	"github.com/teemow/tagdeck/internal/validation"
)

// Mailbox is the Gmail surface the service uses.
type Mailbox interface {
	reader.MessageSource
	GetThread(ctx context.Context, threadID string) ([]*gmail.Message, error)
	SendEmail(ctx context.Context, msg *gmail.EmailMessage) (string, error)
	ModifyLabels(ctx context.Context, id string, add, remove []string) error
}

// Calendar is the Google Calendar surface the service uses.
type Calendar interface {
	reader.EventSource
	activity.EventLister
	CreateEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, input calendar.EventInput) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Clients hands out per-user Google clients. Both methods fail with a
// credential-expired error when no usable provider token is held.
type Clients interface {
	Mailbox(ctx context.Context, userID string) (Mailbox, error)
	Calendar(ctx context.Context, userID string) (Calendar, error)
	// Forget drops any client cached for userID.
	Forget(userID string)
}

// Config configures a Service.
type Config struct {
	Store   store.Store
	Clients Clients
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	PageSize      int64
	ServerSideAll bool
	ViewTTL       time.Duration
	ActivityLimit int
	Now           func() time.Time
}

// Service is the application service behind the HTTP API and the MCP tools.
type Service struct {
	store    store.Store
	clients  Clients
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	validate *validation.Validator
	now      func() time.Time

	emails *reader.EmailReader
	events *reader.EventReader
	cards  *reader.CardReader
	feed   *activity.Aggregator
	views  *listcache.Registry[reader.Email]

	serverSideAll bool
	activityLimit int
}

// New creates a Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	activityLimit := cfg.ActivityLimit
	if activityLimit <= 0 {
		activityLimit = 50
	}

	return &Service{
		store:    cfg.Store,
		clients:  cfg.Clients,
		logger:   logger,
		metrics:  cfg.Metrics,
		validate: validation.New(),
		now:      now,
		emails: reader.NewEmailReader(reader.EmailReaderConfig{
			Store:         cfg.Store,
			Logger:        logger,
			Metrics:       cfg.Metrics,
			PageSize:      cfg.PageSize,
			ServerSideAll: cfg.ServerSideAll,
		}),
		events: reader.NewEventReader(cfg.Store, logger),
		cards:  reader.NewCardReader(cfg.Store, logger),
		feed: activity.NewAggregator(cfg.Store, logger,
			activity.WithMetrics(cfg.Metrics),
			activity.WithClock(now)),
		views:         listcache.NewRegistry[reader.Email](cfg.ViewTTL, listcache.Options{Metrics: cfg.Metrics, Now: now}),
		serverSideAll: cfg.ServerSideAll,
		activityLimit: activityLimit,
	}
}

// Run evicts idle view sessions every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	s.views.Run(ctx, interval)
}

// Subscribe attaches the service to session changes on bus.
func (s *Service) Subscribe(bus session.Bus) (unsubscribe func()) {
	return bus.Subscribe(s.HandleSessionEvent)
}

// HandleSessionEvent reacts to a session change. Sign-in seeds the starter
// tags, sign-out drops the user's view sessions, and any token change drops
// cached Google clients.
func (s *Service) HandleSessionEvent(ev session.Event) {
	logger := s.logger.With(logging.UserHash(ev.UserID), slog.String("event", string(ev.Type)))

	switch ev.Type {
	case session.SignedIn:
		s.clients.Forget(ev.UserID)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.store.EnsureDefaultTags(ctx, ev.UserID); err != nil {
			logger.Warn("failed to seed default tags", logging.Err(err))
		}
	case session.SignedOut:
		s.clients.Forget(ev.UserID)
		n := s.views.DropPrefix(viewPrefix(ev.UserID))
		logger.Debug("dropped view sessions", logging.Count(n))
	case session.TokenRefreshed:
		s.clients.Forget(ev.UserID)
	}
}

func viewPrefix(userID string) string {
	return userID + "/"
}

func viewKey(userID, viewID string) string {
	if viewID == "" {
		viewID = "default"
	}
	return viewPrefix(userID) + viewID
}

// maxViewsPerUser bounds the email views one user can hold open.
const maxViewsPerUser = 16

func (s *Service) emailView(userID, viewID string) *listcache.View[reader.Email] {
	return s.views.GetCapped(viewKey(userID, viewID), viewPrefix(userID), maxViewsPerUser)
}

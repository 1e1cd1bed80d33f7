// Package services implements the campaign lifecycles: site approval, brigade
// formation, worker accounts and brigade assignments. Every service receives
// its store handle explicitly; there is no package-level state.
package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"brigade_tracker/internal/events"
	"brigade_tracker/internal/geo"
	"brigade_tracker/internal/notify"
)

// Services bundles the lifecycle services over one store handle.
type Services struct {
	Regions     *RegionService
	Sites       *SiteService
	SubPlots    *SubPlotService
	Brigades    *BrigadeService
	Workers     *WorkerService
	Assignments *AssignmentService
}

type options struct {
	publisher         events.Publisher
	notifier          notify.Notifier
	now               func() time.Time
	generator         siteGenerator
	strictTransitions bool
	inviteTTL         time.Duration
	registerURL       string
	notified          func(error)
}

type Option func(*options)

// WithPublisher sends lifecycle events to p.
func WithPublisher(p events.Publisher) Option { return func(o *options) { o.publisher = p } }

// WithNotifier sets the outbound invitation channel.
func WithNotifier(n notify.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithGenerator replaces the random site generator.
func WithGenerator(g siteGenerator) Option { return func(o *options) { o.generator = g } }

// WithStrictTransitions enforces models.BrigadeTransitions on state changes.
func WithStrictTransitions(strict bool) Option {
	return func(o *options) { o.strictTransitions = strict }
}

// WithInviteTTL sets how long a registration invite stays valid.
func WithInviteTTL(ttl time.Duration) Option { return func(o *options) { o.inviteTTL = ttl } }

// WithRegisterURL is the frontend page a registration invite links to.
func WithRegisterURL(url string) Option { return func(o *options) { o.registerURL = url } }

// WithNotifyHook is called after every background notification attempt.
func WithNotifyHook(fn func(error)) Option { return func(o *options) { o.notified = fn } }

func New(db *gorm.DB, opts ...Option) *Services {
	o := options{
		publisher: events.Discard{},
		notifier:  notify.LogNotifier{},
		now:       func() time.Time { return time.Now().UTC() },
		inviteTTL: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.generator == nil {
		o.generator = geo.NewGenerator(nil)
	}

	b := base{db: db, events: o.publisher, now: o.now}
	return &Services{
		Regions:  &RegionService{base: b},
		Sites:    &SiteService{base: b, gen: o.generator},
		SubPlots: &SubPlotService{base: b},
		Brigades: &BrigadeService{base: b, strict: o.strictTransitions},
		Workers: &WorkerService{
			base:        b,
			notifier:    o.notifier,
			notified:    o.notified,
			inviteTTL:   o.inviteTTL,
			registerURL: o.registerURL,
		},
		Assignments: &AssignmentService{base: b, notifier: o.notifier, notified: o.notified},
	}
}

type base struct {
	db     *gorm.DB
	events events.Publisher
	now    func() time.Time
}

func (b base) publish(topic, typ string, id uuid.UUID, state string) {
	b.events.Publish(events.Event{Topic: topic, Type: typ, EntityID: id, State: state, At: b.now()})
}

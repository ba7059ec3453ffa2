package testfixtures

import (
	"log/slog"
	"time"

	"github.com/ls1intum/tum-apply-sub002/internal/application"
	"github.com/ls1intum/tum-apply-sub002/internal/bookingstore"
	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	// RangeIDs feeds the engine when ranges are copied to another date.
	RangeIDs *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		RangeIDs:    NewIDGenerator("copy"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.RangeIDs == nil {
		factory.RangeIDs = NewIDGenerator("copy")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// NewEngine builds an engine in Zone whose copied ranges draw ids from RangeIDs.
func (f *ServiceFactory) NewEngine() *scheduler.Engine {
	return scheduler.NewEngine(scheduler.EngineOptions{
		Location:    Zone,
		IDGenerator: f.RangeIDs.NextFunc(),
	})
}

// PlanningServiceDeps captures dependencies for constructing a planning service.
type PlanningServiceDeps struct {
	Engine     *scheduler.Engine
	Bookings   application.BookingStore
	Metrics    application.MetricsRecorder
	Logger     *slog.Logger
	SessionTTL time.Duration
	CacheTTL   time.Duration
}

// NewPlanningService builds a planning service using the supplied dependencies
// combined with the factory defaults. A nil booking store becomes an empty
// in-memory store.
func (f *ServiceFactory) NewPlanningService(deps PlanningServiceDeps) *application.PlanningService {
	engine := deps.Engine
	if engine == nil {
		engine = f.NewEngine()
	}
	bookings := deps.Bookings
	if bookings == nil {
		bookings = bookingstore.NewMemory(Zone)
	}
	return application.NewPlanningService(application.PlanningServiceDeps{
		Engine:      engine,
		Bookings:    bookings,
		Metrics:     deps.Metrics,
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Logger:      deps.Logger,
		SessionTTL:  deps.SessionTTL,
		CacheTTL:    deps.CacheTTL,
	})
}

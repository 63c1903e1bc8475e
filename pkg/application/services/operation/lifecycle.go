package operation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
	"github.com/vsinha/wms/pkg/infrastructure/events"
	"github.com/vsinha/wms/pkg/infrastructure/logging"
	"github.com/vsinha/wms/pkg/infrastructure/metrics"
)

const tracerName = "github.com/vsinha/wms/pkg/application/services/operation"

// Service creates and executes operations, each call in one store transaction.
type Service struct {
	store   repositories.Store
	engine  *SplitEngine
	logger  *zap.Logger
	metrics metrics.Recorder
	events  events.EventStore
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(logger) }
}

// WithMetrics sets the recorder observing every create and execute call
func WithMetrics(recorder metrics.Recorder) Option {
	return func(s *Service) { s.metrics = recorder }
}

// WithEventStore publishes operation and goods events after each commit
func WithEventStore(store events.EventStore) Option {
	return func(s *Service) { s.events = store }
}

// WithTracer replaces the tracer taken from the global provider
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithClock sets the time source for defaulted execution dates
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an operation service on top of store
func NewService(store repositories.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  zap.NewNop(),
		metrics: metrics.NopRecorder{},
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = NewSplitEngine(s.now)
	return s
}

// Create creates an operation of the given kind directly in state.
// Nothing is persisted if any check fails.
func (s *Service) Create(ctx context.Context, kind entities.OperationKind, state entities.OperationState, req CreateRequest) (*entities.Operation, error) {
	ctx, span := s.tracer.Start(ctx, "operation.create", trace.WithAttributes(
		attribute.String("wms.operation.kind", kind.String()),
		attribute.String("wms.operation.state", state.String()),
	))
	defer span.End()
	start := time.Now()

	var (
		op      *entities.Operation
		pending []events.Event
	)
	err := s.store.RunInTransaction(ctx, func(tx repositories.Tx) error {
		var err error
		if op, err = s.create(ctx, tx, kind, state, req); err != nil {
			return err
		}
		pending, err = s.collectEvents(tx, op, true, events.NewOperationCreatedEvent)
		return err
	})
	s.metrics.Observe(ctx, "create", kind.String(), err == nil, time.Since(start))
	if err != nil {
		s.fail(span, "operation creation failed", err,
			zap.Stringer("kind", kind), zap.Stringer("state", state), zap.String("goods", string(req.Goods)))
		return nil, err
	}

	span.SetAttributes(attribute.String("wms.operation.id", string(op.ID)), attribute.Bool("wms.operation.partial", op.Partial))
	s.logger.Info("operation created",
		zap.String("operation_id", string(op.ID)),
		zap.Stringer("kind", op.Kind),
		zap.Stringer("state", op.State),
		zap.Bool("partial", op.Partial),
		zap.Stringer("quantity", op.Quantity),
		zap.Int("outcomes", len(op.Outcomes)))
	s.publish(pending)
	return op, nil
}

// Execute transitions a planned operation to done at dt (now when zero).
func (s *Service) Execute(ctx context.Context, id entities.OperationID, dt time.Time) (*entities.Operation, error) {
	ctx = logging.ContextWithOperationID(ctx, string(id))
	ctx, span := s.tracer.Start(ctx, "operation.execute", trace.WithAttributes(
		attribute.String("wms.operation.id", string(id)),
	))
	defer span.End()
	start := time.Now()
	if dt.IsZero() {
		dt = s.now()
	}

	var (
		op      *entities.Operation
		kind    = "unknown"
		pending []events.Event
	)
	err := s.store.RunInTransaction(ctx, func(tx repositories.Tx) error {
		planned, err := tx.GetOperation(id)
		if err != nil {
			return err
		}
		kind = planned.Kind.String()
		splitPending, err := s.splitPending(tx, planned)
		if err != nil {
			return err
		}
		if op, err = s.execute(ctx, tx, planned, dt); err != nil {
			return err
		}
		pending, err = s.collectEvents(tx, op, splitPending, events.NewOperationExecutedEvent)
		return err
	})
	s.metrics.Observe(ctx, "execute", kind, err == nil, time.Since(start))
	logger := logging.WithOperationID(ctx, s.logger)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		logger.Warn("operation execution failed", zap.String("kind", kind), zap.String("code", string(entities.KindOf(err))), zap.Error(err))
		return nil, err
	}

	logger.Info("operation executed", zap.Stringer("kind", op.Kind), zap.Time("dt_execution", op.DtExecution))
	s.publish(pending)
	return op, nil
}

// Get returns an operation by identifier
func (s *Service) Get(ctx context.Context, id entities.OperationID) (*entities.Operation, error) {
	var op *entities.Operation
	err := s.store.View(ctx, func(v repositories.View) error {
		var err error
		op, err = v.GetOperation(id)
		return err
	})
	return op, err
}

// Arrive creates an arrival of quantity goods of typeID at location
func (s *Service) Arrive(ctx context.Context, state entities.OperationState, req CreateRequest) (*entities.Operation, error) {
	return s.Create(ctx, entities.Arrival, state, req)
}

// Move creates a move of goods to req.Destination, splitting first when needed
func (s *Service) Move(ctx context.Context, state entities.OperationState, req CreateRequest) (*entities.Operation, error) {
	return s.Create(ctx, entities.Move, state, req)
}

// Unpack creates an unpack of goods
func (s *Service) Unpack(ctx context.Context, state entities.OperationState, req CreateRequest) (*entities.Operation, error) {
	return s.Create(ctx, entities.Unpack, state, req)
}

func (s *Service) create(ctx context.Context, tx repositories.Tx, kind entities.OperationKind, state entities.OperationState, req CreateRequest) (*entities.Operation, error) {
	if state != entities.Planned && state != entities.Done {
		return nil, entities.NewError(entities.ErrCodeUnsupported, "creation in state %q is not supported", state)
	}
	switch kind {
	case entities.Arrival:
		return createBase(ctx, tx, &ArrivalOperation{}, state, req, s.now)
	case entities.Split:
		return createBase(ctx, tx, SplitOperation{}, state, req, s.now)
	case entities.Move:
		return s.engine.Create(ctx, tx, MoveOperation{}, state, req)
	case entities.Unpack:
		return s.engine.Create(ctx, tx, UnpackOperation{}, state, req)
	default:
		return nil, entities.NewError(entities.ErrCodeUnsupported, "unknown operation kind %s", kind)
	}
}

func (s *Service) execute(ctx context.Context, tx repositories.Tx, op *entities.Operation, dt time.Time) (*entities.Operation, error) {
	switch op.Kind {
	case entities.Arrival:
		return executeBase(ctx, tx, &ArrivalOperation{}, op, dt)
	case entities.Split:
		return executeBase(ctx, tx, SplitOperation{}, op, dt)
	case entities.Move:
		return s.engine.Execute(ctx, tx, MoveOperation{}, op, dt)
	case entities.Unpack:
		return s.engine.Execute(ctx, tx, UnpackOperation{}, op, dt)
	default:
		return nil, entities.NewError(entities.ErrCodeUnsupported, "unknown operation kind %s", op.Kind)
	}
}

// splitPending reports whether op is partial and its split still has to run
func (s *Service) splitPending(tx repositories.Tx, op *entities.Operation) (bool, error) {
	if !op.Partial || len(op.Follows) != 1 {
		return false, nil
	}
	split, err := tx.GetOperation(op.Follows[0])
	if err != nil {
		return false, err
	}
	return split.State == entities.Planned, nil
}

// collectEvents describes op, and its split predecessor when withSplit is
// set, as events to publish once the transaction has committed.
func (s *Service) collectEvents(tx repositories.Tx, op *entities.Operation, withSplit bool, opEvent func(entities.Operation, time.Time) events.Event) ([]events.Event, error) {
	ops := []*entities.Operation{op}
	if withSplit && op.Partial && len(op.Follows) == 1 {
		split, err := tx.GetOperation(op.Follows[0])
		if err != nil {
			return nil, err
		}
		ops = []*entities.Operation{split, op}
	}

	t := s.now()
	var out []events.Event
	for _, o := range ops {
		out = append(out, opEvent(*o, t))
		if o.Kind != entities.Arrival && o.Goods != "" {
			input, err := tx.GetGoods(o.Goods)
			if err != nil {
				return nil, err
			}
			if input.State == entities.Past && input.Reason == o.ID {
				out = append(out, events.NewGoodsConsumedEvent(input.ID, o.ID, t))
			}
		}
		for _, id := range o.Outcomes {
			g, err := tx.GetGoods(id)
			if err != nil {
				return nil, err
			}
			out = append(out, events.NewGoodsProducedEvent(*g, t))
		}
	}
	return out, nil
}

func (s *Service) publish(pending []events.Event) {
	if s.events == nil {
		return
	}
	for _, e := range pending {
		if err := s.events.AppendEvent(e.StreamID(), e); err != nil {
			s.logger.Warn("failed to publish event", zap.String("event_type", e.Type()), zap.Error(err))
		}
	}
}

func (s *Service) fail(span trace.Span, msg string, err error, fields ...zap.Field) {
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	fields = append(fields, zap.String("code", string(entities.KindOf(err))), zap.Error(err))
	s.logger.Warn(msg, fields...)
}

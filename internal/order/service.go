package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bom-tracker/internal/bom"
	"bom-tracker/internal/logger"
	"bom-tracker/internal/models"
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	OrderNumberExists(ctx context.Context, userID int64, orderNumber string) (bool, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrderForUser(ctx context.Context, id, userID int64) (*models.Order, error)
	AppendBomVersion(ctx context.Context, id, userID int64, expectedCount int, boms models.BomList) (bool, error)
	TransitionStatus(ctx context.Context, id, userID int64, status models.OrderStatus, at time.Time) (bool, error)
	AppendAndTransition(ctx context.Context, id, userID int64, expectedCount int, boms models.BomList, status models.OrderStatus, at time.Time) (bool, error)
}

type RedisLock interface {
	LockOrder(ctx context.Context, orderID int64) (string, bool, error)
	UnlockOrder(ctx context.Context, orderID int64, token string) error
}

type KafkaPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

// Notifier receives every committed order change, e.g. the SSE emitter.
type Notifier interface {
	Emit(event models.OrderEvent)
}

const (
	defaultCASAttempts  = 10
	defaultLockWait     = 3 * time.Second
	lockPollInterval    = 20 * time.Millisecond
	casBackoffIncrement = 2 * time.Millisecond
)

type OrderService struct {
	DB       DBLayer
	Redis    RedisLock
	Kafka    KafkaPublisher
	Notifier Notifier
	Logger   *logger.Logger

	// MaxCASAttempts bounds re-reads after a lost compare-and-swap.
	MaxCASAttempts int
	// LockWait bounds how long a writer waits for the Redis order lock.
	LockWait time.Duration

	now func() time.Time
}

// NewOrderService wires the store with optional lock, Kafka and notifier;
// any of the three may be nil.
func NewOrderService(db DBLayer, redis RedisLock, kafka KafkaPublisher, notifier Notifier, log *logger.Logger) *OrderService {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderService{
		DB:             db,
		Redis:          redis,
		Kafka:          kafka,
		Notifier:       notifier,
		Logger:         log,
		MaxCASAttempts: defaultCASAttempts,
		LockWait:       defaultLockWait,
		now:            time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// ---------------- ORDERS ----------------

func (s *OrderService) CreateOrder(ctx context.Context, ownerID int64, req models.CreateOrderRequest) (*models.Order, error) {
	orderNumber := strings.TrimSpace(req.OrderNumber)
	clientName := strings.TrimSpace(req.ClientName)
	if orderNumber == "" || clientName == "" {
		return nil, fmt.Errorf("%w: order number and client name are required", models.ErrInvalidInput)
	}

	exists, err := s.DB.OrderNumberExists(ctx, ownerID, orderNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrDuplicateOrderNumber
	}

	order := &models.Order{
		UserID:      ownerID,
		OrderNumber: orderNumber,
		ClientName:  clientName,
		Status:      models.OrderStatusActive,
		CreatedAt:   s.now().UTC(),
		Boms:        models.BomList{},
	}
	// the unique constraint decides between concurrent creates
	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("CREATE", order.ID, fmt.Sprintf("%s for %s", order.OrderNumber, order.ClientName))
	s.publish(ctx, models.NewOrderEvent(models.OrderEventCreated, *order))
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, ownerID int64) ([]models.Order, error) {
	return s.DB.ListOrdersByUser(ctx, ownerID)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID, ownerID int64) (*models.Order, error) {
	return s.DB.GetOrderForUser(ctx, orderID, ownerID)
}

// Transition archives an active order as completed or terminated. A second
// transition fails with ErrOrderArchived and leaves the first timestamp alone.
func (s *OrderService) Transition(ctx context.Context, orderID, ownerID int64, target models.OrderStatus) (*models.Order, error) {
	if !target.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot move an order to %q", models.ErrInvalidInput, target)
	}

	order, err := s.DB.GetOrderForUser(ctx, orderID, ownerID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order %s is %s", models.ErrOrderArchived, order.OrderNumber, order.Status)
	}

	unlock, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	at := s.now().UTC()
	swapped, err := s.DB.TransitionStatus(ctx, orderID, ownerID, target, at)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// someone else archived it between the read and the update
		return nil, fmt.Errorf("%w: order %s was archived concurrently", models.ErrOrderArchived, order.OrderNumber)
	}

	updated, err := s.DB.GetOrderForUser(ctx, orderID, ownerID)
	if err != nil {
		return nil, err
	}

	s.Logger.LogOrder("TRANSITION", orderID, fmt.Sprintf("%s -> %s", models.OrderStatusActive, target))
	s.publish(ctx, models.NewOrderEvent(models.EventTypeForStatus(target), *updated))
	return updated, nil
}

// ---------------- BOM VERSIONS ----------------

// AppendVersion adds the next BOM version to an active order. Concurrent
// appends are serialised by the order lock (if configured) and by a
// compare-and-swap on the stored version count.
func (s *OrderService) AppendVersion(ctx context.Context, orderID, ownerID int64, draft models.BomDraft) (*models.BomVersion, error) {
	if err := models.Validate(draft); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	_, version, err := s.applyLocked(ctx, orderID, ownerID, func(*models.Order) (*models.BomDraft, error) {
		return &draft, nil
	}, "")
	return version, err
}

// applyLocked runs the compare-and-swap loop shared by appends and updates.
// resolve picks the draft to append from the current order (nil appends
// nothing); a non-empty archiveAs archives the order in the same write. The
// caller holds the order lock.
func (s *OrderService) applyLocked(ctx context.Context, orderID, ownerID int64, resolve func(*models.Order) (*models.BomDraft, error), archiveAs models.OrderStatus) (*models.Order, *models.BomVersion, error) {
	attempts := s.MaxCASAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		order, err := s.DB.GetOrderForUser(ctx, orderID, ownerID)
		if err != nil {
			return nil, nil, err
		}
		if order.Status.IsTerminal() {
			return nil, nil, fmt.Errorf("%w: order %s is %s", models.ErrOrderArchived, order.OrderNumber, order.Status)
		}

		draft, err := resolve(order)
		if err != nil {
			return nil, nil, err
		}

		var (
			version *models.BomVersion
			boms    = order.Boms
			swapped bool
			at      = s.now().UTC()
		)
		if draft != nil {
			built, err := bom.BuildVersion(*draft, len(order.Boms), s.now())
			if err != nil {
				return nil, nil, err
			}
			version = &built
			boms = make(models.BomList, 0, len(order.Boms)+1)
			boms = append(boms, order.Boms...)
			boms = append(boms, built)
		}

		switch {
		case draft == nil && archiveAs == "":
			return order, nil, nil
		case draft == nil:
			swapped, err = s.DB.TransitionStatus(ctx, orderID, ownerID, archiveAs, at)
		case archiveAs == "":
			swapped, err = s.DB.AppendBomVersion(ctx, orderID, ownerID, len(order.Boms), boms)
		default:
			swapped, err = s.DB.AppendAndTransition(ctx, orderID, ownerID, len(order.Boms), boms, archiveAs, at)
		}
		if err != nil {
			return nil, nil, err
		}

		if swapped {
			if archiveAs != "" {
				if order, err = s.DB.GetOrderForUser(ctx, orderID, ownerID); err != nil {
					return nil, nil, err
				}
			} else {
				order.Boms = boms
				order.BomCount = len(boms)
			}
			if version != nil {
				s.Logger.LogOrder("BOM_APPEND", orderID, fmt.Sprintf("version %d, total %.2f", version.Version, version.TotalCost))
				event := models.NewOrderEvent(models.OrderEventBomAppended, *order)
				event.Version, event.TotalCost = version.Version, version.TotalCost
				s.publish(ctx, event)
			}
			if archiveAs != "" {
				s.Logger.LogOrder("TRANSITION", orderID, fmt.Sprintf("%s -> %s", models.OrderStatusActive, archiveAs))
				s.publish(ctx, models.NewOrderEvent(models.EventTypeForStatus(archiveAs), *order))
			}
			return order, version, nil
		}

		s.Logger.Debug("ORDER", fmt.Sprintf("update of order %d lost CAS (attempt %d/%d)", orderID, attempt, attempts))
		if err := sleepCtx(ctx, time.Duration(attempt)*casBackoffIncrement); err != nil {
			return nil, nil, err
		}
	}

	return nil, nil, fmt.Errorf("%w: gave up updating order %d after %d attempts", models.ErrConflict, orderID, attempts)
}

// GetVersion returns the version at the zero-based index.
func (s *OrderService) GetVersion(ctx context.Context, orderID, ownerID int64, index int) (*models.BomVersion, error) {
	order, err := s.DB.GetOrderForUser(ctx, orderID, ownerID)
	if err != nil {
		return nil, err
	}
	return bom.GetVersion(order.Boms, index)
}

// UpdateOrder applies an optional new BOM version and an optional status
// change as a single write, and returns the resulting order. The version comes
// from Bom or, when the client sends its whole history, from the one trailing
// version Boms adds to the stored list.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID, ownerID int64, req models.UpdateOrderRequest) (*models.Order, error) {
	if req.Status == nil && req.Bom == nil && req.Boms == nil {
		return nil, fmt.Errorf("%w: nothing to update", models.ErrInvalidInput)
	}
	if req.Bom != nil && req.Boms != nil {
		return nil, fmt.Errorf("%w: send either bom or boms", models.ErrInvalidInput)
	}

	var target models.OrderStatus
	if req.Status != nil {
		status, ok := models.ParseOrderStatus(*req.Status)
		if !ok || !status.IsTerminal() {
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, *req.Status)
		}
		target = status
	}

	if req.Bom == nil && req.Boms == nil {
		return s.Transition(ctx, orderID, ownerID, target)
	}
	if req.Bom != nil {
		if err := models.Validate(*req.Bom); err != nil {
			return nil, err
		}
	}

	unlock, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	updated, _, err := s.applyLocked(ctx, orderID, ownerID, func(current *models.Order) (*models.BomDraft, error) {
		if req.Bom != nil {
			return req.Bom, nil
		}
		draft, err := bom.DraftFromHistory(current.Boms, req.Boms)
		if err != nil || draft == nil {
			return draft, err
		}
		if err := models.Validate(*draft); err != nil {
			return nil, err
		}
		return draft, nil
	}, target)
	return updated, err
}

// ---------------- HELPERS ----------------

// lock takes the Redis order lock, polling until LockWait runs out. Without
// Redis it is a no-op.
func (s *OrderService) lock(ctx context.Context, orderID int64) (func(), error) {
	if s.Redis == nil {
		return func() {}, nil
	}

	deadline := time.Now().Add(s.LockWait)
	for {
		token, ok, err := s.Redis.LockOrder(ctx, orderID)
		if err != nil {
			// the CAS still protects the write
			s.Logger.Warn("REDIS", fmt.Sprintf("lock order %d: %v, continuing without lock", orderID, err))
			return func() {}, nil
		}
		if ok {
			return func() {
				if err := s.Redis.UnlockOrder(context.Background(), orderID, token); err != nil {
					s.Logger.Warn("REDIS", fmt.Sprintf("unlock order %d: %v", orderID, err))
				}
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: order %d is locked", models.ErrConflict, orderID)
		}
		if err := sleepCtx(ctx, lockPollInterval); err != nil {
			return nil, err
		}
	}
}

func (s *OrderService) publish(ctx context.Context, event models.OrderEvent) {
	if s.Notifier != nil {
		s.Notifier.Emit(event)
	}
	if s.Kafka == nil {
		return
	}
	if err := s.Kafka.PublishOrderEvent(ctx, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish %s for order %d: %v", event.Type, event.OrderID, err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsClientError reports whether err is one of the domain errors a caller can
// act on, as opposed to a storage failure.
func IsClientError(err error) bool {
	for _, e := range []error{
		models.ErrInvalidInput, models.ErrNotFound, models.ErrDuplicateOrderNumber,
		models.ErrEmptyBom, models.ErrIndexOutOfRange, models.ErrOrderArchived, models.ErrConflict,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

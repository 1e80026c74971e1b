package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	catalog "github.com/dmehra2102/restaurant-pos/internal/catalog/domain"
	"github.com/dmehra2102/restaurant-pos/internal/pos/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Checkout outcomes reported to the Recorder.
const (
	OutcomeCompleted        = "completed"
	OutcomeCancelled        = "cancelled"
	OutcomeSubmissionFailed = "submission_failed"
	OutcomePaymentFailed    = "payment_failed"
	OutcomeStalePrices      = "stale_prices"
)

type Config struct {
	Policy           domain.MergePolicy
	TaxRate          domain.TaxRate
	RevalidatePrices bool
	IdleTTL          time.Duration
}

// Session is one terminal's POS state. All access goes through the
// SessionService, which holds mu for the duration of each mutation.
type Session struct {
	ID string

	mu       sync.Mutex
	composer *domain.Composer
	lastUsed time.Time
}

type SessionView struct {
	ID string `json:"id"`
	domain.View
}

type AddItemInput struct {
	ItemID      string   `json:"itemId"`
	VariationID string   `json:"variationId,omitempty"`
	AddonIDs    []string `json:"addonIds,omitempty"`
}

type PaymentResult struct {
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// SessionService owns every open POS session. Network calls to the
// catalog and order backends are made without holding a session lock;
// the SUBMITTING state keeps a second submit out meanwhile.
type SessionService struct {
	log      *slog.Logger
	catalog  Catalog
	orders   OrderSubmitter
	payments PaymentIntents
	metrics  Recorder
	cfg      Config
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionService(log *slog.Logger, cat Catalog, orders OrderSubmitter, payments PaymentIntents, metrics Recorder, cfg Config) *SessionService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &SessionService{
		log:      log,
		catalog:  cat,
		orders:   orders,
		payments: payments,
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

func (s *SessionService) Create() SessionView {
	sess := &Session{
		ID:       uuid.NewString(),
		composer: domain.NewComposer(s.cfg.Policy, s.cfg.TaxRate, uuid.NewString),
		lastUsed: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SessionsOpen(n)
	s.log.Info("session opened", "session_id", sess.ID)
	return SessionView{ID: sess.ID, View: sess.composer.View()}
}

func (s *SessionService) Get(id string) (SessionView, error) {
	return s.with(id, func(*Session) error { return nil })
}

// End closes the session. A session with a submission in flight stays
// open so the created order is not lost.
func (s *SessionService) End(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.mu.Lock()
	submitting := sess.composer.State() == domain.StateSubmitting
	sess.mu.Unlock()
	if submitting {
		s.mu.Unlock()
		return domain.ErrSubmissionInFlight
	}
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SessionsOpen(n)
	s.log.Info("session closed", "session_id", id)
	return nil
}

// AddItem looks the item up in the catalog and adds one unit of the
// selection to the session's cart.
func (s *SessionService) AddItem(ctx context.Context, id string, in AddItemInput) (SessionView, error) {
	if _, err := s.lookup(id); err != nil {
		return SessionView{}, err
	}
	item, err := s.catalog.Item(ctx, in.ItemID)
	if err != nil {
		return SessionView{}, fmt.Errorf("load item %s: %w", in.ItemID, err)
	}
	variation, addons, err := domain.ResolveSelection(item, in.VariationID, in.AddonIDs)
	if err != nil {
		return SessionView{}, err
	}
	return s.with(id, func(sess *Session) error {
		line, err := sess.composer.Add(item, variation, addons)
		if err != nil {
			return err
		}
		s.metrics.CartChanged("add")
		s.log.Debug("item added", "session_id", id, "key", line.Key, "quantity", line.Quantity)
		return nil
	})
}

func (s *SessionService) UpdateQuantity(id string, key domain.SelectionKey, delta int) (SessionView, error) {
	return s.with(id, func(sess *Session) error {
		ok, err := sess.composer.UpdateQuantity(key, delta)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrLineNotFound, key)
		}
		s.metrics.CartChanged("update")
		return nil
	})
}

func (s *SessionService) Reset(id string) (SessionView, error) {
	return s.with(id, func(sess *Session) error {
		if err := sess.composer.Reset(); err != nil {
			return err
		}
		s.metrics.CartChanged("reset")
		return nil
	})
}

// Reprice refreshes unit prices from the catalog and reports what moved.
func (s *SessionService) Reprice(ctx context.Context, id string) ([]domain.PriceChange, SessionView, error) {
	if _, err := s.lookup(id); err != nil {
		return nil, SessionView{}, err
	}
	menu, err := s.catalog.FreshMenu(ctx)
	if err != nil {
		return nil, SessionView{}, fmt.Errorf("refresh menu: %w", err)
	}
	var changes []domain.PriceChange
	view, err := s.with(id, func(sess *Session) error {
		c, err := sess.composer.Reprice(menu)
		if err != nil {
			return err
		}
		if len(c) > 0 {
			s.metrics.CartChanged("reprice")
			s.log.Info("cart repriced", "session_id", id, "changes", len(c))
		}
		changes = c
		return nil
	})
	return changes, view, err
}

func (s *SessionService) BeginCheckout(id string) (SessionView, error) {
	return s.with(id, func(sess *Session) error { return sess.composer.BeginCheckout() })
}

func (s *SessionService) Back(id string) (SessionView, error) {
	return s.with(id, func(sess *Session) error { return sess.composer.Back() })
}

func (s *SessionService) Cancel(id string) (SessionView, error) {
	return s.with(id, func(sess *Session) error {
		if err := sess.composer.Cancel(); err != nil {
			return err
		}
		s.metrics.CheckoutFinished(OutcomeCancelled)
		return nil
	})
}

func (s *SessionService) SetDetails(id string, d domain.CustomerDetails) (SessionView, error) {
	return s.with(id, func(sess *Session) error { return sess.composer.SetDetails(d) })
}

// Submit sends the frozen cart to the order service. Cash orders finish
// here; card and online orders continue with a payment intent. The backend
// calls are not cancelled when the caller goes away.
func (s *SessionService) Submit(ctx context.Context, id string) (SessionView, error) {
	ctx = context.WithoutCancel(ctx)

	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := s.guardSubmit(sess); err != nil {
		return s.view(sess), err
	}

	var menu catalog.Menu
	if s.cfg.RevalidatePrices {
		if menu, err = s.catalog.FreshMenu(ctx); err != nil {
			s.log.Error("menu refresh before submit failed", "session_id", id, "err", err)
			return s.view(sess), &domain.SubmissionError{Err: fmt.Errorf("refresh menu: %w", err)}
		}
	}

	// The price check and the move to SUBMITTING share one lock hold so the
	// snapshot that was verified is the one that gets sent.
	var (
		draft domain.OrderDraft
		key   string
		stale bool
	)
	if view, err := s.with(id, func(sess *Session) (err error) {
		if s.cfg.RevalidatePrices && sess.composer.State() != domain.StateSubmitting {
			if err := sess.composer.VerifyPrices(menu); err != nil {
				stale = true
				return err
			}
		}
		draft, key, err = sess.composer.StartSubmit()
		return err
	}); err != nil {
		var verr *domain.ValidationError
		if stale && errors.As(err, &verr) {
			s.metrics.CheckoutFinished(OutcomeStalePrices)
		}
		return view, err
	}

	receipt, err := s.orders.Submit(ctx, draft, key)
	if err != nil {
		s.log.Error("order submission failed", "session_id", id, "idempotency_key", key, "err", err)
		s.metrics.CheckoutFinished(OutcomeSubmissionFailed)
		return s.with(id, func(sess *Session) error { return sess.composer.SubmitFailed(err) })
	}
	s.log.Info("order submitted", "session_id", id, "order_id", receipt.ID, "total", draft.Total.String())

	var needsPayment bool
	view, err := s.with(id, func(sess *Session) (err error) {
		needsPayment, err = sess.composer.SubmitSucceeded(receipt.ID)
		return err
	})
	if err != nil || !needsPayment {
		if err == nil {
			s.metrics.CheckoutFinished(OutcomeCompleted)
		}
		return view, err
	}
	return s.createIntent(ctx, sess)
}

// RetryPaymentIntent asks for a new client secret for the pending order.
func (s *SessionService) RetryPaymentIntent(ctx context.Context, id string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	return s.createIntent(context.WithoutCancel(ctx), sess)
}

// ConfirmPayment records the outcome the terminal's payment SDK reported.
func (s *SessionService) ConfirmPayment(id string, res PaymentResult) (SessionView, error) {
	return s.with(id, func(sess *Session) error {
		if res.Succeeded {
			orderID, _ := sess.composer.PendingOrder()
			if err := sess.composer.PaymentSucceeded(); err != nil {
				return err
			}
			s.metrics.CheckoutFinished(OutcomeCompleted)
			s.log.Info("payment confirmed", "session_id", id, "order_id", orderID)
			return nil
		}
		reason := res.Error
		if reason == "" {
			reason = "payment declined"
		}
		err := sess.composer.PaymentFailed(errors.New(reason))
		var perr *domain.PaymentError
		if errors.As(err, &perr) {
			s.metrics.CheckoutFinished(OutcomePaymentFailed)
			s.log.Warn("payment failed", "session_id", id, "order_id", perr.OrderID, "reason", reason)
		}
		return err
	})
}

func (s *SessionService) createIntent(ctx context.Context, sess *Session) (SessionView, error) {
	sess.mu.Lock()
	state := sess.composer.State()
	orderID, totals := sess.composer.PendingOrder()
	sess.mu.Unlock()
	if state != domain.StateAwaitingPayment {
		return s.view(sess), fmt.Errorf("%w: create payment intent while %s", domain.ErrInvalidTransition, state)
	}

	secret, err := s.payments.CreateIntent(ctx, orderID, totals.Total)
	return s.with(sess.ID, func(sess *Session) error {
		if err != nil {
			s.log.Error("payment intent failed", "session_id", sess.ID, "order_id", orderID, "err", err)
			s.metrics.CheckoutFinished(OutcomePaymentFailed)
			return sess.composer.PaymentIntentFailed(err)
		}
		return sess.composer.AttachPaymentIntent(secret)
	})
}

func (s *SessionService) guardSubmit(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch st := sess.composer.State(); st {
	case domain.StateSubmitting:
		return domain.ErrSubmissionInFlight
	case domain.StateAwaitingCustomerInfo:
		return nil
	default:
		return fmt.Errorf("%w: submit while %s", domain.ErrInvalidTransition, st)
	}
}

func (s *SessionService) lookup(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// with runs fn under the session lock and returns the resulting view,
// also when fn fails, so the terminal can redraw.
func (s *SessionService) with(id string, fn func(*Session) error) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = s.now()
	err = fn(sess)
	return SessionView{ID: sess.ID, View: sess.composer.View()}, err
}

func (s *SessionService) view(sess *Session) SessionView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return SessionView{ID: sess.ID, View: sess.composer.View()}
}

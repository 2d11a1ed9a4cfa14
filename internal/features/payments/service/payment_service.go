package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/cache"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/metrics"
	"checkout-engine/internal/core/validation"
	checkoutdomain "checkout-engine/internal/features/checkout/domain"
	"checkout-engine/internal/features/payments/domain"
	"checkout-engine/internal/features/payments/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	submitLockPrefix = "checkout-submit-lock:"
	// pendingPrefix marks a session whose transaction is still being confirmed, across instances.
	pendingPrefix    = "checkout-pending:"
	pendingRetention = 30 * time.Minute
	acceptanceKey    = "gateway-acceptance"
	acceptanceTTL    = 10 * time.Minute
	// statusRetention is how long a terminal status stays visible if the shopper never closes it.
	statusRetention = 15 * time.Minute
	defaultUserType = "PERSON"
)

// tracked is a polled transaction together with the method it was paid with.
type tracked struct {
	handle *PollHandle
	method domain.PaymentMethod
}

// PaymentServiceImpl implements ports.PaymentService.
// It runs the submit pipeline and owns the status pollers of every session.
type PaymentServiceImpl struct {
	gateway  ports.Gateway
	backend  ports.Backend
	cart     ports.Cart
	checkout ports.Checkout
	cache    cache.Cache
	poller   *StatusPoller
	metrics  *metrics.CheckoutMetrics
	lockTTL  time.Duration

	acceptance singleflight.Group

	mu      sync.Mutex
	pollers map[string]*tracked
	closing chan struct{}
	closed  bool
}

// NewPaymentService creates the payment service. m may be nil.
func NewPaymentService(
	gateway ports.Gateway,
	backend ports.Backend,
	cart ports.Cart,
	checkout ports.Checkout,
	c cache.Cache,
	poller *StatusPoller,
	m *metrics.CheckoutMetrics,
	lockTTL time.Duration,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		gateway:  gateway,
		backend:  backend,
		cart:     cart,
		checkout: checkout,
		cache:    c,
		poller:   poller,
		metrics:  m,
		lockTTL:  lockTTL,
		pollers:  make(map[string]*tracked),
		closing:  make(chan struct{}),
	}
}

// Submit validates the checkout, tokenizes the instrument, resolves the customer and address,
// and submits the order. A returned transaction id is polled until it is resolved.
func (s *PaymentServiceImpl) Submit(ctx context.Context, sessionID string, req domain.SubmitRequest) (result domain.SubmitResult, err error) {
	// The charge may already be in flight when the caller goes away.
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer func() { s.observeSubmit(start, result, err) }()

	log := logger.ForSession(sessionID).With(zap.String("method", string(req.Method)))

	if s.pending(sessionID) {
		return domain.SubmitResult{}, apperror.New(apperror.CodeConflict, "a payment for this checkout is still being confirmed")
	}

	ledger, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	container, err := s.checkout.Get(ctx, sessionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if err := validateSubmission(req, ledger.IsEmpty(), container); err != nil {
		return domain.SubmitResult{}, err
	}

	release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	defer release()

	if err := s.checkInFlight(ctx, sessionID); err != nil {
		return domain.SubmitResult{}, err
	}

	method, err := s.paymentMethod(ctx, req, ledger.TotalItems())
	if err != nil {
		log.Warn("Payment method rejected", zap.Error(err))
		return domain.SubmitResult{}, err
	}

	customerID, err := s.backend.GetOrCreateCustomer(ctx, *container.Payer)
	if err != nil {
		log.Error("Failed to resolve customer", zap.Error(err))
		return domain.SubmitResult{}, ensureCode(err, apperror.CodeResolution, "we could not identify the customer, please try again")
	}

	addressID, err := s.backend.CreateAddress(ctx, customerID, *container.ShippingData)
	if err != nil {
		log.Error("Failed to save shipping address", zap.Error(err))
		return domain.SubmitResult{}, ensureCode(err, apperror.CodeResolution, "we could not save the shipping address, please try again")
	}

	submission := domain.OrderSubmission{
		CustomerID: customerID,
		AddressID:  addressID,
		Payment: domain.PaymentPayload{
			MethodPayload:   method.Payload(),
			AcceptanceToken: req.AcceptanceToken,
			CustomerEmail:   container.Payer.Email,
		},
		CustomerData: &domain.CustomerData{
			Email:       container.Payer.Email,
			FullName:    container.Payer.FullName,
			PhoneNumber: container.Payer.Phone,
		},
	}
	for _, line := range ledger.Lines() {
		submission.Items = append(submission.Items, domain.OrderLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	order, err := s.backend.SubmitOrder(ctx, submission)
	if err != nil {
		log.Error("Order submission failed", zap.Error(err))
		return domain.SubmitResult{}, ensureCode(err, apperror.CodeSubmission, "the order could not be placed, please try again")
	}
	if !order.Success {
		msg := order.Error
		if msg == "" {
			msg = "the order could not be placed, please try again"
		}
		return domain.SubmitResult{}, apperror.New(apperror.CodeSubmission, msg)
	}

	if order.Order != nil {
		result.OrderID = order.Order.ID
		result.Reference = order.Order.Reference
	}

	txID := order.TransactionID()
	if txID == "" {
		if err := s.finish(ctx, sessionID); err != nil {
			log.Error("Order placed but the checkout could not be finished", zap.Error(err))
		}
		result.Finished = true
		log.Info("Order placed", zap.String("order_id", result.OrderID))
		return result, nil
	}

	if _, err := s.checkout.SetTransaction(ctx, sessionID, txID, string(method.Type())); err != nil {
		// The order exists, so the transaction is polled anyway and approval still clears the cart.
		log.Error("Failed to record transaction on checkout", zap.String("transaction_id", txID), zap.Error(err))
	}
	if err := s.cache.Set(ctx, pendingPrefix+sessionID, []byte(txID), pendingRetention); err != nil {
		log.Warn("Failed to mark transaction as pending", zap.String("transaction_id", txID), zap.Error(err))
	}
	s.track(sessionID, txID, method)

	result.TransactionID = txID
	result.Status = domain.StatusPending
	if order.Data.Status != "" {
		result.Status = order.Data.Status
	}
	result.Instructions = method.PendingInstructions(domain.Transaction{ID: txID, Status: result.Status})

	log.Info("Order placed, waiting for payment confirmation",
		zap.String("order_id", result.OrderID),
		zap.String("transaction_id", txID),
	)
	return result, nil
}

// AcceptanceTerms returns the merchant acceptance token, cached for a few minutes.
func (s *PaymentServiceImpl) AcceptanceTerms(ctx context.Context) (domain.Acceptance, error) {
	raw, err := s.cache.Get(ctx, acceptanceKey)
	if err == nil {
		var acceptance domain.Acceptance
		if err := json.Unmarshal(raw, &acceptance); err == nil && acceptance.AcceptanceToken != "" {
			return acceptance, nil
		}
	} else if !errors.Is(err, cache.ErrNotFound) {
		logger.Get().Warn("Acceptance cache read failed", zap.Error(err))
	}

	v, err, _ := s.acceptance.Do(acceptanceKey, func() (interface{}, error) {
		acceptance, err := s.gateway.AcceptanceTerms(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(acceptance); err == nil {
			if err := s.cache.Set(context.WithoutCancel(ctx), acceptanceKey, raw, acceptanceTTL); err != nil {
				logger.Get().Warn("Acceptance cache write failed", zap.Error(err))
			}
		}
		return acceptance, nil
	})
	if err != nil {
		logger.Get().Error("Failed to load acceptance terms", zap.Error(err))
		return domain.Acceptance{}, ensureCode(err, apperror.CodeUnavailable, "")
	}
	return v.(domain.Acceptance), nil
}

// Status returns the transaction status screen of the session.
func (s *PaymentServiceImpl) Status(_ context.Context, sessionID string) (domain.StatusView, error) {
	t := s.get(sessionID)
	if t == nil {
		return domain.StatusView{}, apperror.New(apperror.CodeNotFound, "there is no payment to show")
	}
	return statusView(t), nil
}

// CloseStatus dismisses the status screen.
// APPROVED finishes the checkout. A rejected payment is forgotten and the shopper stays on PAYMENT
// to retry with the same cart. A PENDING payment keeps being polled.
func (s *PaymentServiceImpl) CloseStatus(ctx context.Context, sessionID string) (domain.StatusView, error) {
	t := s.get(sessionID)
	if t == nil {
		return domain.StatusView{}, apperror.New(apperror.CodeNotFound, "there is no payment to show")
	}

	status := t.handle.State().Transaction.Status
	switch {
	case status == domain.StatusApproved:
		t.handle.Finish()
		s.forget(sessionID, t)

	case status.IsRejected():
		t.handle.Stop()
		s.forget(sessionID, t)
		if _, err := s.checkout.ClearTransaction(ctx, sessionID); err != nil {
			return domain.StatusView{}, err
		}

	default:
		container, err := s.checkout.Get(ctx, sessionID)
		if err != nil {
			return domain.StatusView{}, err
		}
		if container.ActiveStep == checkoutdomain.StepStatus {
			if _, err := s.checkout.Back(ctx, sessionID); err != nil {
				return domain.StatusView{}, err
			}
		}
	}

	return statusView(t), nil
}

// TransactionCleared stops polling a transaction the checkout no longer references.
// Terminal results stay visible until the status screen is closed.
func (s *PaymentServiceImpl) TransactionCleared(_ context.Context, sessionID, transactionID string) {
	s.mu.Lock()
	t, ok := s.pollers[sessionID]
	if !ok || t.handle.TransactionID() != transactionID {
		s.mu.Unlock()
		return
	}
	terminal := t.handle.State().Transaction.Status.IsTerminal()
	if !terminal {
		delete(s.pollers, sessionID)
	}
	s.mu.Unlock()

	t.handle.Stop()
	if !terminal {
		logger.ForSession(sessionID).Info("Stopped polling abandoned transaction", zap.String("transaction_id", transactionID))
	}
}

// Close stops every poller and waits for them to exit or for ctx to end.
func (s *PaymentServiceImpl) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closing)
	handles := make([]*PollHandle, 0, len(s.pollers))
	for _, t := range s.pollers {
		handles = append(handles, t.handle)
	}
	s.pollers = make(map[string]*tracked)
	s.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
	for _, h := range handles {
		select {
		case <-h.Done():
		case <-ctx.Done():
			return fmt.Errorf("waiting for status pollers: %w", ctx.Err())
		}
	}
	return nil
}

func validateSubmission(req domain.SubmitRequest, ledgerEmpty bool, c checkoutdomain.Container) error {
	if ledgerEmpty {
		return apperror.New(apperror.CodeValidation, "the cart is empty")
	}
	if c.ActiveStep != checkoutdomain.StepPayment {
		return apperror.Newf(apperror.CodeValidation, "payments are only accepted on the %s step", checkoutdomain.StepPayment)
	}
	if c.Payer == nil {
		return apperror.New(apperror.CodeValidation, "payer is required")
	}
	if c.ShippingData == nil {
		return apperror.New(apperror.CodeValidation, "shipping address is required")
	}
	if !req.TermsAccepted {
		return apperror.New(apperror.CodeValidation, "you must accept the terms and conditions").
			WithDetails(map[string]string{"terms_accepted": "must be accepted"})
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	switch req.Method {
	case domain.MethodCard:
		if req.Card == nil {
			return apperror.New(apperror.CodeValidation, "card details are required").
				WithDetails(map[string]string{"card": "is required"})
		}
	case domain.MethodNequi:
		if req.PhoneNumber == "" {
			return apperror.New(apperror.CodeValidation, "a Nequi phone number is required").
				WithDetails(map[string]string{"phone_number": "is required"})
		}
	}
	return nil
}

// paymentMethod builds the method to charge. Only cards talk to the gateway here.
func (s *PaymentServiceImpl) paymentMethod(ctx context.Context, req domain.SubmitRequest, items int) (domain.PaymentMethod, error) {
	switch req.Method {
	case domain.MethodCard:
		token, err := s.gateway.TokenizeCard(ctx, *req.Card)
		if err != nil {
			return nil, ensureCode(err, apperror.CodeTokenization, "the card could not be verified, please check the details")
		}
		installments := req.Installments
		if installments < 1 {
			installments = 1
		}
		return domain.CardMethod{Token: token, Installments: installments}, nil

	case domain.MethodNequi:
		return domain.NequiMethod{PhoneNumber: req.PhoneNumber}, nil

	case domain.MethodBancolombiaTransfer:
		userType := strings.ToUpper(req.UserType)
		if userType == "" {
			userType = defaultUserType
		}
		return domain.AsyncMethod{
			MethodType:  domain.MethodBancolombiaTransfer,
			UserType:    userType,
			Description: fmt.Sprintf("Payment for %d items", items),
		}, nil
	}
	return nil, apperror.Wrap(apperror.CodeValidation, domain.ErrUnknownMethod, "unsupported payment method")
}

// acquire takes the per-session submission lock. The returned func releases it.
func (s *PaymentServiceImpl) acquire(ctx context.Context, sessionID string) (func(), error) {
	key := submitLockPrefix + sessionID
	token := []byte(uuid.NewString())

	ok, err := s.cache.SetNX(ctx, key, token, s.lockTTL)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, err, "failed to acquire submission lock")
	}
	if !ok {
		return nil, apperror.New(apperror.CodeConflict, "a payment for this checkout is already being processed")
	}

	return func() {
		held, err := s.cache.Get(ctx, key)
		if err != nil || string(held) != string(token) {
			return
		}
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.ForSession(sessionID).Warn("Failed to release submission lock", zap.Error(err))
		}
	}, nil
}

// finish clears the cart and resets the checkout after a completed payment.
func (s *PaymentServiceImpl) finish(ctx context.Context, sessionID string) error {
	if err := s.cart.Clear(ctx, sessionID); err != nil {
		return err
	}
	if err := s.checkout.Reset(ctx, sessionID); err != nil {
		return err
	}
	logger.ForSession(sessionID).Info("Checkout finished")
	return nil
}

// track starts polling txID, replacing any earlier poller of the session.
func (s *PaymentServiceImpl) track(sessionID, txID string, method domain.PaymentMethod) {
	h := s.poller.Start(sessionID, txID, method.Type(), func() {
		if err := s.finish(context.Background(), sessionID); err != nil {
			logger.ForSession(sessionID).Error("Payment approved but the checkout could not be finished",
				zap.String("transaction_id", txID), zap.Error(err))
		}
	})
	t := &tracked{handle: h, method: method}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		h.Stop()
		return
	}
	prev := s.pollers[sessionID]
	s.pollers[sessionID] = t
	s.mu.Unlock()

	if prev != nil {
		prev.handle.Stop()
	}
	go s.expire(sessionID, t)
}

// expire drops a terminal result nobody closed after statusRetention.
// The pending marker goes as soon as the poller stops.
func (s *PaymentServiceImpl) expire(sessionID string, t *tracked) {
	select {
	case <-t.handle.Done():
	case <-s.closing:
		return
	}
	s.clearPending(context.Background(), sessionID, t.handle.TransactionID())

	if !t.handle.State().Transaction.Status.IsTerminal() {
		return
	}

	timer := time.NewTimer(statusRetention)
	defer timer.Stop()
	select {
	case <-timer.C:
		s.forget(sessionID, t)
	case <-s.closing:
	}
}

func (s *PaymentServiceImpl) get(sessionID string) *tracked {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollers[sessionID]
}

// forget removes t if it is still the session's poller.
func (s *PaymentServiceImpl) forget(sessionID string, t *tracked) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pollers[sessionID] == t {
		delete(s.pollers, sessionID)
	}
}

// checkInFlight refuses a submission while the session's last transaction is unresolved.
// A marker left by another instance is checked against the gateway.
func (s *PaymentServiceImpl) checkInFlight(ctx context.Context, sessionID string) error {
	if s.pending(sessionID) {
		return apperror.New(apperror.CodeConflict, "a payment for this checkout is still being confirmed")
	}

	raw, err := s.cache.Get(ctx, pendingPrefix+sessionID)
	switch {
	case errors.Is(err, cache.ErrNotFound):
		return nil
	case err != nil:
		return apperror.Wrap(apperror.CodeInternal, err, "failed to read the payment state")
	}

	txID := string(raw)
	if t := s.get(sessionID); t != nil && t.handle.TransactionID() == txID {
		s.clearPending(ctx, sessionID, txID)
		return nil
	}

	tx, err := s.gateway.GetTransaction(ctx, txID)
	if err != nil {
		logger.ForSession(sessionID).Warn("Could not check pending transaction", zap.String("transaction_id", txID), zap.Error(err))
		return apperror.New(apperror.CodeConflict, "a payment for this checkout is still being confirmed")
	}
	if !tx.Status.IsTerminal() {
		return apperror.New(apperror.CodeConflict, "a payment for this checkout is still being confirmed")
	}
	s.clearPending(ctx, sessionID, txID)
	return nil
}

// clearPending removes the pending marker if it still names txID.
func (s *PaymentServiceImpl) clearPending(ctx context.Context, sessionID, txID string) {
	key := pendingPrefix + sessionID
	held, err := s.cache.Get(ctx, key)
	if err != nil || string(held) != txID {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.ForSession(sessionID).Warn("Failed to clear pending marker", zap.String("transaction_id", txID), zap.Error(err))
	}
}

func (s *PaymentServiceImpl) pending(sessionID string) bool {
	t := s.get(sessionID)
	return t != nil && !t.handle.State().Transaction.Status.IsTerminal()
}

func (s *PaymentServiceImpl) observeSubmit(start time.Time, result domain.SubmitResult, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "finished"
	switch {
	case err != nil:
		code := apperror.CodeInternal
		if typed := apperror.As(err); typed != nil {
			code = typed.Code()
		}
		outcome = strings.ToLower(string(code))
	case result.TransactionID != "":
		outcome = "pending"
	}
	s.metrics.Submissions.WithLabelValues(outcome).Inc()
	s.metrics.SubmitDuration.Observe(time.Since(start).Seconds())
}

func statusView(t *tracked) domain.StatusView {
	state := t.handle.State()
	tx := state.Transaction

	view := domain.StatusView{
		TransactionID: tx.ID,
		Method:        t.handle.Method(),
		Status:        tx.Status,
		Terminal:      tx.Status.IsTerminal(),
		Rejected:      tx.Status.IsRejected(),
		Finished:      state.Finished,
		RedirectURL:   tx.RedirectURL,
		Polls:         state.Polls,
	}

	switch tx.Status {
	case domain.StatusApproved:
		view.Message = "Payment approved. Thank you for your purchase!"
	case domain.StatusDeclined:
		view.Message = "The payment was declined."
		if tx.StatusMessage != "" {
			view.Message = "The payment was declined: " + tx.StatusMessage
		}
	case domain.StatusError:
		view.Message = "The payment could not be processed."
		if tx.StatusMessage != "" {
			view.Message = "The payment could not be processed: " + tx.StatusMessage
		}
	case domain.StatusVoided:
		view.Message = "The payment was voided."
	default:
		view.Message = "Waiting for payment confirmation."
		view.Instructions = t.method.PendingInstructions(tx)
	}
	return view
}

// ensureCode keeps coded errors as they are and wraps anything else with code and message.
func ensureCode(err error, code apperror.Code, message string) error {
	if apperror.As(err) != nil {
		return err
	}
	return apperror.Wrap(code, err, message)
}

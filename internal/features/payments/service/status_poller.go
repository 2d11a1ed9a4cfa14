package service

import (
	"context"
	"sync"
	"time"

	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/metrics"
	"checkout-engine/internal/features/payments/domain"

	"go.uber.org/zap"
)

// TransactionFetcher reads the current state of a transaction.
type TransactionFetcher interface {
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
}

// StatusPoller resolves pending transactions by polling the gateway.
type StatusPoller struct {
	fetcher  TransactionFetcher
	interval time.Duration
	metrics  *metrics.CheckoutMetrics
}

// NewStatusPoller creates a poller. m may be nil.
func NewStatusPoller(fetcher TransactionFetcher, interval time.Duration, m *metrics.CheckoutMetrics) *StatusPoller {
	return &StatusPoller{
		fetcher:  fetcher,
		interval: interval,
		metrics:  m,
	}
}

// PollState is what the poller knows about a transaction.
type PollState struct {
	Transaction domain.Transaction
	Polls       int
	// Failures counts polls that could not reach the gateway.
	Failures int
	// Finished is true once the approval callback ran.
	Finished  bool
	UpdatedAt time.Time
}

// PollHandle owns one polling goroutine. Stop is idempotent; the approval callback runs at most once.
type PollHandle struct {
	sessionID  string
	method     domain.MethodType
	onApproved func()

	mu    sync.Mutex
	state PollState

	stopOnce   sync.Once
	finishOnce sync.Once
	cancel     context.CancelFunc
	done       chan struct{}
}

// Start polls txID immediately and then on every tick until a terminal status or Stop.
// onApproved runs once, from the polling goroutine, when the transaction is APPROVED.
func (p *StatusPoller) Start(sessionID, txID string, method domain.MethodType, onApproved func()) *PollHandle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &PollHandle{
		sessionID:  sessionID,
		method:     method,
		onApproved: onApproved,
		state: PollState{
			Transaction: domain.Transaction{ID: txID, Status: domain.StatusPending, Method: method},
			UpdatedAt:   time.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go p.run(ctx, h)
	return h
}

func (p *StatusPoller) run(ctx context.Context, h *PollHandle) {
	defer close(h.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if p.poll(ctx, h) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll fetches the transaction once and reports whether polling is over.
// Fetch failures are logged and retried on the next tick.
func (p *StatusPoller) poll(ctx context.Context, h *PollHandle) bool {
	txID := h.TransactionID()
	log := logger.ForSession(h.sessionID).With(zap.String("transaction_id", txID))

	fetchCtx, cancel := context.WithTimeout(ctx, p.interval+10*time.Second)
	tx, err := p.fetcher.GetTransaction(fetchCtx, txID)
	cancel()

	if ctx.Err() != nil {
		return true
	}

	if err != nil {
		log.Warn("Transaction status poll failed", zap.Error(err))
		h.recordFailure()
		p.observePoll("transport_error")
		return false
	}

	if tx.ID == "" {
		tx.ID = txID
	}
	if tx.Status == "" {
		tx.Status = domain.StatusPending
	}
	if tx.Method == "" {
		tx.Method = h.method
	}
	h.record(tx)
	p.observePoll(string(tx.Status))

	if !tx.Status.IsTerminal() {
		return false
	}

	log.Info("Transaction reached terminal status", zap.String("status", tx.Status.String()))
	if p.metrics != nil {
		p.metrics.Outcomes.WithLabelValues(string(tx.Status)).Inc()
	}
	if tx.Status == domain.StatusApproved {
		h.Finish()
	}
	return true
}

func (p *StatusPoller) observePoll(status string) {
	if p.metrics != nil {
		p.metrics.Polls.WithLabelValues(status).Inc()
	}
}

// TransactionID returns the polled transaction.
func (h *PollHandle) TransactionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Transaction.ID
}

// Method returns the payment method of the transaction.
func (h *PollHandle) Method() domain.MethodType {
	return h.method
}

// State returns a copy of the current state.
func (h *PollHandle) State() PollState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Stop ends polling. It does not wait for an in-flight poll to return.
func (h *PollHandle) Stop() {
	h.stopOnce.Do(h.cancel)
}

// Done is closed when the polling goroutine has exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Finish runs the approval callback if the transaction is APPROVED and it has not run yet.
// It reports whether the callback has run, by this call or an earlier one.
func (h *PollHandle) Finish() bool {
	if h.State().Transaction.Status != domain.StatusApproved {
		return false
	}

	h.finishOnce.Do(func() {
		if h.onApproved != nil {
			h.onApproved()
		}
		h.mu.Lock()
		h.state.Finished = true
		h.mu.Unlock()
	})
	return true
}

func (h *PollHandle) record(tx domain.Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Transaction = tx
	h.state.Polls++
	h.state.UpdatedAt = time.Now()
}

func (h *PollHandle) recordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Polls++
	h.state.Failures++
	h.state.UpdatedAt = time.Now()
}

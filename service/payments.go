package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/cache/pending"
	"gitlab.com/unchained-card/card_api/featureflags"
	"gitlab.com/unchained-card/card_api/lib/chain"
	"gitlab.com/unchained-card/card_api/model"
	"gitlab.com/unchained-card/card_api/monitor"
)

type trackedPayment struct {
	payment *model.Payment
	form    *model.RegistrationForm
}

type paymentTracker struct {
	byHash map[string]*trackedPayment
	lock   *sync.Mutex
}

func newPaymentTracker() *paymentTracker {
	return &paymentTracker{
		byHash: make(map[string]*trackedPayment),
		lock:   &sync.Mutex{},
	}
}

// add stores the payment unless the hash is already tracked, in which case the existing entry is returned
func (t *paymentTracker) add(entry *trackedPayment) (*model.Payment, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if existing, ok := t.byHash[entry.payment.TxHash]; ok {
		p := *existing.payment
		return &p, false
	}
	t.byHash[entry.payment.TxHash] = entry
	p := *entry.payment
	return &p, true
}

func (t *paymentTracker) get(hash string) (*trackedPayment, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	entry, ok := t.byHash[hash]
	return entry, ok
}

func (t *paymentTracker) snapshot(hash string) (*model.Payment, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	entry, ok := t.byHash[hash]
	if !ok {
		return nil, false
	}
	p := *entry.payment
	return &p, true
}

// transition moves a submitted payment to a final state. It returns false when the
// payment already left the submitted state.
func (t *paymentTracker) transition(hash string, state model.PaymentState, reason string) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	entry, ok := t.byHash[hash]
	if !ok || entry.payment.State != model.PaymentStateSubmitted {
		return false
	}
	entry.payment.State = state
	entry.payment.Error = reason
	entry.payment.UpdatedAt = time.Now()
	return true
}

func (t *paymentTracker) setError(hash string, reason string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if entry, ok := t.byHash[hash]; ok {
		entry.payment.Error = reason
		entry.payment.UpdatedAt = time.Now()
	}
}

func (t *paymentTracker) evictFinal(before time.Time) int {
	t.lock.Lock()
	defer t.lock.Unlock()
	removed := 0
	for hash, entry := range t.byHash {
		if entry.payment.State.IsFinal() && entry.payment.UpdatedAt.Before(before) {
			delete(t.byHash, hash)
			removed++
		}
	}
	return removed
}

func (t *paymentTracker) watching() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	count := 0
	for _, entry := range t.byHash {
		if entry.payment.State == model.PaymentStateSubmitted {
			count++
		}
	}
	return count
}

// GetPayment returns the tracked payment of a transaction hash
func (service *Service) GetPayment(hash string) (*model.Payment, error) {
	payment, ok := service.payments.snapshot(model.NormalizeTxHash(hash))
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// ReportPayment tracks a transaction the wallet already sent. The transaction must pay the
// quote with the given id to the treasury and be mined after the quote was created.
func (service *Service) ReportPayment(ctx context.Context, wallet string, purpose model.PaymentPurpose, quoteID, txHash string) (*model.Payment, error) {
	logger := log.With().
		Str("section", "service").
		Str("action", "ReportPayment").
		Str("wallet", wallet).
		Str("quote_id", quoteID).
		Str("tx_hash", txHash).
		Logger()

	if !purpose.IsValid() {
		return nil, ErrInvalidPurpose
	}
	if !model.IsTxHash(txHash) {
		return nil, ErrInvalidTxHash
	}
	hash := model.NormalizeTxHash(txHash)
	if existing, ok := service.payments.snapshot(hash); ok {
		if existing.Intent.Wallet != model.NormalizeWallet(wallet) || existing.Intent.Purpose != purpose {
			return nil, ErrTransactionMismatch
		}
		return existing, nil
	}

	quote, err := service.quotes.Get(quoteID, wallet, purpose)
	if err != nil {
		return nil, ErrNoPendingQuote
	}

	tx, err := service.chain.GetTransaction(ctx, hash)
	if err != nil {
		logger.Warn().Err(err).Msg("Unable to load reported transaction")
		return nil, err
	}
	if err := verifyTransaction(tx, quote.Intent); err != nil {
		logger.Warn().Err(err).Str("to", tx.To).Str("from", tx.From).Str("value", tx.ValueWei().String()).Msg("Reported transaction rejected")
		return nil, err
	}
	if tx.IsMined() {
		if err := service.checkMinedAfterQuote(ctx, tx.BlockNumber, quote.Intent); err != nil {
			logger.Warn().Err(err).Str("block", tx.BlockNumber).Msg("Reported transaction rejected")
			return nil, err
		}
	}

	return service.track(hash, quote, false, "wallet"), nil
}

// SubmitPayment sends the quoted amount from the custodial sender and tracks the transaction.
// It is only reachable from the internal network.
func (service *Service) SubmitPayment(ctx context.Context, wallet string, purpose model.PaymentPurpose, quoteID string) (*model.Payment, error) {
	logger := log.With().
		Str("section", "service").
		Str("action", "SubmitPayment").
		Str("wallet", wallet).
		Str("quote_id", quoteID).
		Logger()

	if !purpose.IsValid() {
		return nil, ErrInvalidPurpose
	}
	if !service.isEnabled(featureflags.EnableCustodialSubmit) || service.cfg.Payments.CustodialSender == "" {
		return nil, ErrFeatureDisabled
	}
	quote, err := service.quotes.Get(quoteID, wallet, purpose)
	if err != nil {
		return nil, ErrNoPendingQuote
	}

	hash, err := service.chain.SendTransaction(ctx, service.cfg.Payments.CustodialSender, quote.Intent.Recipient, quote.Intent.Value)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to send transaction")
		return nil, errors.Wrap(err, "unable to send transaction")
	}
	logger.Info().Str("tx_hash", hash).Msg("Transaction sent")
	return service.track(model.NormalizeTxHash(hash), quote, true, "custodial"), nil
}

func verifyTransaction(tx *chain.Transaction, intent *model.PaymentIntent) error {
	if !chain.SameAddress(tx.To, intent.Recipient) {
		return errors.Wrap(ErrTransactionMismatch, "wrong recipient")
	}
	if !chain.SameAddress(tx.From, intent.Wallet) {
		return errors.Wrap(ErrTransactionMismatch, "wrong sender")
	}
	if tx.ValueWei().Cmp(intent.Value) < 0 {
		return errors.Wrap(ErrTransactionMismatch, "insufficient value")
	}
	return nil
}

// checkMinedAfterQuote refuses transactions older than the quote they claim to pay, so a
// transaction can never settle a second quote once its processed claim is gone
func (service *Service) checkMinedAfterQuote(ctx context.Context, blockNumber string, intent *model.PaymentIntent) error {
	minedAt, err := service.chain.GetBlockTime(ctx, blockNumber)
	if err != nil {
		return errors.Wrap(err, "unable to load block")
	}
	if minedAt.Add(service.cfg.Payments.BlockTimeSkew).Before(intent.CreatedAt) {
		return errors.Wrap(ErrTransactionMismatch, "transaction mined before the quote")
	}
	return nil
}

// track moves a payment to submitted and starts watching it. Only one watcher runs per hash.
func (service *Service) track(hash string, quote *pending.Quote, custodial bool, origin string) *model.Payment {
	payment := model.NewPayment(quote.Intent)
	payment.TxHash = hash
	payment.State = model.PaymentStateSubmitted
	payment.Custodial = custodial

	tracked, created := service.payments.add(&trackedPayment{payment: payment, form: quote.Form})
	if !created {
		return tracked
	}
	monitor.PaymentsSubmitted.WithLabelValues(quote.Intent.Purpose.String(), origin).Inc()
	monitor.PaymentsWatching.Set(float64(service.payments.watching()))

	service.watchers.Add(1)
	go service.watch(hash)
	return tracked
}

func (service *Service) watch(hash string) {
	defer service.watchers.Done()
	defer func() {
		monitor.PaymentsWatching.Set(float64(service.payments.watching()))
	}()
	logger := log.With().
		Str("section", "service").
		Str("action", "watch").
		Str("tx_hash", hash).
		Logger()

	receipt, err := service.chain.WaitForReceipt(service.ctx, hash, service.cfg.Chain.ReceiptPollInitial, service.cfg.Chain.ReceiptPollMax)
	if err != nil {
		if service.ctx.Err() != nil {
			logger.Info().Msg("Stopped watching payment")
			return
		}
		logger.Error().Err(err).Msg("Unable to get transaction receipt")
		service.fail(hash, "receipt_error", err.Error())
		return
	}
	if !receipt.IsSuccessful() {
		service.fail(hash, "reverted", "transaction reverted")
		return
	}
	if entry, ok := service.payments.get(hash); ok && receipt.BlockNumber != "" {
		if err := service.checkMinedAfterQuote(service.ctx, receipt.BlockNumber, entry.payment.Intent); err != nil {
			if service.ctx.Err() != nil {
				logger.Info().Msg("Stopped watching payment")
				return
			}
			logger.Warn().Err(err).Str("block", receipt.BlockNumber).Msg("Transaction does not settle the quote")
			service.fail(hash, "stale", err.Error())
			return
		}
	}
	if err := service.Confirm(service.ctx, hash); err != nil {
		logger.Error().Err(err).Msg("Payment confirmed but reconciliation failed")
	}
}

func (service *Service) fail(hash, code, reason string) {
	entry, ok := service.payments.get(hash)
	if !ok || !service.payments.transition(hash, model.PaymentStateFailed, reason) {
		return
	}
	purpose := entry.payment.Intent.Purpose
	monitor.PaymentsFailed.WithLabelValues(purpose.String(), code).Inc()
	log.Warn().Str("section", "service").Str("action", "fail").Str("tx_hash", hash).Str("reason", reason).Msg("Payment failed")
	service.publishStatus(entry.payment.Intent.Wallet, model.CardStatusEventFailed, hash)
}

// Confirm marks the payment confirmed and runs its side effect. The side effect runs at
// most once per transaction hash, later calls for the same hash do nothing.
func (service *Service) Confirm(ctx context.Context, hash string) error {
	hash = model.NormalizeTxHash(hash)
	entry, ok := service.payments.get(hash)
	if !ok {
		return ErrPaymentNotFound
	}
	logger := log.With().
		Str("section", "service").
		Str("action", "Confirm").
		Str("tx_hash", hash).
		Logger()

	if current, _ := service.payments.snapshot(hash); current.State == model.PaymentStateFailed {
		return errors.New("payment failed on chain")
	}
	claimed, err := service.processed.Claim(ctx, hash)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to claim transaction")
		service.payments.setError(hash, err.Error())
		return err
	}
	if !claimed {
		// another confirmation already ran the side effect
		service.payments.transition(hash, model.PaymentStateConfirmed, "")
		logger.Info().Msg("Transaction already processed")
		return nil
	}
	service.payments.transition(hash, model.PaymentStateConfirmed, "")

	payment, _ := service.payments.snapshot(hash)
	monitor.PaymentsConfirmed.WithLabelValues(payment.Intent.Purpose.String()).Inc()

	switch payment.Intent.Purpose {
	case model.PaymentPurposeRegistration:
		err = service.reconcileRegistration(ctx, payment, entry.form)
	case model.PaymentPurposeTopUp:
		err = service.reconcileTopUp(ctx, payment)
	}
	if err != nil {
		service.payments.setError(hash, err.Error())
	}
	return err
}

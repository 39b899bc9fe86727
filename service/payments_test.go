package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/unchained-card/card_api/conv"
	"gitlab.com/unchained-card/card_api/lib/chain"
	"gitlab.com/unchained-card/card_api/model"
)

func TestQuotes(t *testing.T) {
	Convey("Given the payment service", t, func() {
		f := newFixture()
		defer f.close()
		ctx := context.Background()

		Convey("a registration quote converts the fee with the fee rate", func() {
			intent, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
			So(err, ShouldBeNil)
			So(intent.TokenAmount.String(), ShouldEqual, "3150000")
			So(intent.Value.String(), ShouldEqual, "3150000000000000000000000")
			So(intent.Wallet, ShouldEqual, strings.ToLower(testWallet))
			So(intent.Recipient, ShouldEqual, testTreasury)
			So(intent.FallbackPrice, ShouldBeFalse)
		})

		Convey("a top-up under the minimum is rejected before anything is sent", func() {
			f.addUser(testWallet, "C-1")
			_, err := f.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(9.99))
			So(err, ShouldEqual, ErrAmountBelowMinimum)

			_, err = f.service.SubmitPayment(ctx, testWallet, model.PaymentPurposeTopUp, "")
			So(err, ShouldEqual, ErrNoPendingQuote)
			So(f.chain.sentCount(), ShouldEqual, 0)
		})

		Convey("a top-up at the minimum is accepted", func() {
			f.addUser(testWallet, "C-1")
			intent, err := f.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(10))
			So(err, ShouldBeNil)
			So(intent.TokenAmount.String(), ShouldEqual, "1050000")
		})

		Convey("amounts too large to price are refused instead of quoted at zero", func() {
			f.addUser(testWallet, "C-1")
			for _, amount := range []string{"1e29", "1e30", "1e31", "123456789012345678901234567890"} {
				usd, ok := conv.FromString(amount)
				So(ok, ShouldBeTrue)
				intent, err := f.service.QuoteTopUp(ctx, testWallet, usd)
				So(err, ShouldEqual, ErrAmountAboveMaximum)
				So(intent, ShouldBeNil)
			}
		})

		Convey("the configured maximum caps top-ups", func() {
			f.addUser(testWallet, "C-1")
			f.service.cfg.Payments.MaxTopUpUSD = 1000
			_, err := f.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(1000.01))
			So(err, ShouldEqual, ErrAmountAboveMaximum)

			intent, err := f.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(1000))
			So(err, ShouldBeNil)
			So(intent.Value.Sign(), ShouldBeGreaterThan, 0)
		})

		Convey("a quote worth less than one token is refused", func() {
			f.price.price = conv.FromFloat(1000000000)
			_, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
			So(err, ShouldEqual, ErrAmountBelowMinimum)
		})

		Convey("every quote gets its own id", func() {
			first, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
			So(err, ShouldBeNil)
			second, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
			So(err, ShouldBeNil)
			So(first.QuoteID, ShouldNotBeEmpty)
			So(second.QuoteID, ShouldNotEqual, first.QuoteID)
		})

		Convey("a top-up needs a provisioned card", func() {
			_, err := f.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(20))
			So(err, ShouldEqual, ErrUserNotFound)

			f.addUser(testWallet, "")
			_, err = f.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(20))
			So(err, ShouldEqual, ErrCardNotProvisioned)
		})

		Convey("the fallback price keeps quoting available", func() {
			f.price.fromOracle = false
			intent, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
			So(err, ShouldBeNil)
			So(intent.FallbackPrice, ShouldBeTrue)
			So(intent.TokenAmount.String(), ShouldEqual, "3150000")
		})

		Convey("a zero price is refused", func() {
			f.price.price = conv.FromFloat(0)
			_, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
			So(pkgerrors.Cause(err), ShouldEqual, ErrPriceUnavailable)
		})

		Convey("a registered wallet cannot register again", func() {
			f.addUser(testWallet, "")
			_, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
			So(err, ShouldEqual, ErrUserExists)
		})

		Convey("an invalid form is refused", func() {
			form := validForm()
			form.Email = "not an email"
			_, err := f.service.QuoteRegistration(ctx, testWallet, form)
			So(err, ShouldEqual, model.ErrInvalidEmail)
		})

		Convey("disabled features are refused", func() {
			f.service.isEnabled = func(string) bool { return false }
			_, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
			So(err, ShouldEqual, ErrFeatureDisabled)
		})
	})
}

func waitForState(f *fixture, hash string, state model.PaymentState) *model.Payment {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		payment, err := f.service.GetPayment(hash)
		if err == nil && payment.State == state {
			return payment
		}
		time.Sleep(time.Millisecond)
	}
	payment, _ := f.service.GetPayment(hash)
	return payment
}

func TestRegistrationFlow(t *testing.T) {
	Convey("Given a registration quote", t, func() {
		f := newFixture()
		defer f.close()
		ctx := context.Background()
		intent, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
		So(err, ShouldBeNil)

		Convey("a confirmed payment creates the user and notifies once", func() {
			f.payQuote(intent, testHash)
			payment, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, testHash)
			So(err, ShouldBeNil)
			So(payment.State, ShouldEqual, model.PaymentStateSubmitted)

			f.service.Wait()
			payment, _ = f.service.GetPayment(testHash)
			So(payment.State, ShouldEqual, model.PaymentStateConfirmed)
			So(payment.Error, ShouldBeEmpty)

			So(len(f.store.created), ShouldEqual, 1)
			user := f.store.created[0]
			So(user.WalletAddress, ShouldEqual, strings.ToLower(testWallet))
			So(user.FirstName, ShouldEqual, "Ada")
			So(user.LastName, ShouldEqual, "Lovelace")
			So(user.Email, ShouldEqual, "ada@example.com")

			messages := f.notifier.sent()
			So(len(messages), ShouldEqual, 1)
			So(messages[0], ShouldContainSubstring, testHash)
			So(messages[0], ShouldContainSubstring, "+1 2015550123")

			events := f.node.events()
			So(len(events), ShouldEqual, 1)
			So(events[0].channel, ShouldEqual, "card:status#"+strings.ToLower(testWallet))
			So(events[0].event.Event, ShouldEqual, model.CardStatusEventWaiting)

			_, err = f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, "0x"+strings.Repeat("1", 64))
			So(err, ShouldEqual, ErrNoPendingQuote)
		})

		Convey("reporting the same hash twice returns the tracked payment", func() {
			f.chain.block = true
			f.payQuote(intent, testHash)
			first, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, testHash)
			So(err, ShouldBeNil)
			second, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, strings.ToUpper(testHash[2:]))
			So(err, ShouldEqual, ErrInvalidTxHash)
			second, err = f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, "0x"+strings.ToUpper(testHash[2:]))
			So(err, ShouldBeNil)
			So(second.ID, ShouldEqual, first.ID)
		})

		Convey("a repeated confirmation fires the side effect once", func() {
			f.chain.block = true
			f.payQuote(intent, testHash)
			_, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, testHash)
			So(err, ShouldBeNil)

			So(f.service.Confirm(ctx, testHash), ShouldBeNil)
			So(f.service.Confirm(ctx, testHash), ShouldBeNil)

			So(len(f.store.created), ShouldEqual, 1)
			So(len(f.notifier.sent()), ShouldEqual, 1)
		})

		Convey("a failed insert is surfaced without notification", func() {
			f.store.failOn = errors.New("connection refused")
			f.payQuote(intent, testHash)
			_, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, testHash)
			So(err, ShouldBeNil)
			f.service.Wait()

			payment, _ := f.service.GetPayment(testHash)
			So(payment.State, ShouldEqual, model.PaymentStateConfirmed)
			So(payment.Error, ShouldContainSubstring, "connection refused")
			So(len(f.notifier.sent()), ShouldEqual, 0)

			So(f.service.Confirm(ctx, testHash), ShouldBeNil)
			So(len(f.store.created), ShouldEqual, 0)
		})

		Convey("a reverted transaction fails the payment", func() {
			f.chain.status = "0x0"
			f.payQuote(intent, testHash)
			_, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, testHash)
			So(err, ShouldBeNil)
			f.service.Wait()

			payment := waitForState(f, testHash, model.PaymentStateFailed)
			So(payment.State, ShouldEqual, model.PaymentStateFailed)
			So(len(f.store.created), ShouldEqual, 0)
			So(len(f.notifier.sent()), ShouldEqual, 0)
		})

		Convey("a transaction that does not pay the quote is refused", func() {
			f.payQuote(intent, testHash)
			f.chain.txs[testHash].To = testWallet
			_, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, testHash)
			So(pkgerrors.Cause(err), ShouldEqual, ErrTransactionMismatch)

			f.payQuote(intent, testHash)
			f.chain.txs[testHash].Value = "0x1"
			_, err = f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, testHash)
			So(pkgerrors.Cause(err), ShouldEqual, ErrTransactionMismatch)
		})

		Convey("the custodial sender can submit the payment", func() {
			payment, err := f.service.SubmitPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID)
			So(err, ShouldBeNil)
			So(payment.Custodial, ShouldBeTrue)
			So(payment.TxHash, ShouldEqual, testHash)
			f.service.Wait()
			So(f.chain.sentCount(), ShouldEqual, 1)
			So(len(f.store.created), ShouldEqual, 1)
		})
	})
}

func TestTopUpFlow(t *testing.T) {
	Convey("Given a provisioned card", t, func() {
		f := newFixture()
		defer f.close()
		ctx := context.Background()
		f.addUser(testWallet, "C-1")
		intent, err := f.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(25))
		So(err, ShouldBeNil)
		f.service.cards.SetCard(testWallet, &model.CardSnapshot{Code: "C-1"}, f.service.cards.Generation(testWallet))

		Convey("a confirmed top-up notifies and refreshes the card even when the notification fails", func() {
			f.notifier.err = errors.New("telegram down")
			f.payQuote(intent, testHash)
			_, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeTopUp, intent.QuoteID, testHash)
			So(err, ShouldBeNil)
			f.service.Wait()

			messages := f.notifier.sent()
			So(len(messages), ShouldEqual, 1)
			So(messages[0], ShouldEqual, "Card Top-Up Received\n\nCard: C-1\nAmount: $25\nWallet: "+strings.ToLower(testWallet)+"\nTX: "+testHash)

			_, cached := f.service.cards.GetCard(testWallet)
			So(cached, ShouldBeFalse)
			events := f.node.events()
			So(len(events), ShouldEqual, 1)
			So(events[0].event.Event, ShouldEqual, model.CardStatusEventRefresh)
		})
	})
}

func TestQuoteOwnership(t *testing.T) {
	Convey("Given a registration quote of the wallet owner", t, func() {
		f := newFixture()
		defer f.close()
		ctx := context.Background()
		owner, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
		So(err, ShouldBeNil)

		Convey("a later quote for the same wallet does not replace the owner's form", func() {
			other := validForm()
			other.FirstName = "Mallory"
			other.Email = "mallory@example.com"
			_, err := f.service.QuoteRegistration(ctx, testWallet, other)
			So(err, ShouldBeNil)

			f.payQuote(owner, testHash)
			_, err = f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, owner.QuoteID, testHash)
			So(err, ShouldBeNil)
			f.service.Wait()

			So(len(f.store.created), ShouldEqual, 1)
			So(f.store.created[0].FirstName, ShouldEqual, "Ada")
			So(f.store.created[0].Email, ShouldEqual, "ada@example.com")
		})

		Convey("a payment needs the id of a quote issued for the wallet", func() {
			f.payQuote(owner, testHash)
			_, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, "", testHash)
			So(err, ShouldEqual, ErrNoPendingQuote)
			_, err = f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeTopUp, owner.QuoteID, testHash)
			So(err, ShouldEqual, ErrNoPendingQuote)
			_, err = f.service.ReportPayment(ctx, testTreasury, model.PaymentPurposeRegistration, owner.QuoteID, testHash)
			So(err, ShouldEqual, ErrNoPendingQuote)
		})
	})
}

func TestReplayedTransaction(t *testing.T) {
	Convey("Given a top-up that was already reconciled", t, func() {
		f := newFixture()
		ctx := context.Background()
		f.addUser(testWallet, "C-1")
		intent, err := f.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(25))
		So(err, ShouldBeNil)
		f.payQuote(intent, testHash)
		_, err = f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeTopUp, intent.QuoteID, testHash)
		So(err, ShouldBeNil)
		f.service.Wait()
		So(len(f.notifier.sent()), ShouldEqual, 1)
		f.close()

		Convey("a restarted instance refuses the same transaction for a new quote", func() {
			restarted := newFixtureWith(f.store, f.chain, testNow.Add(time.Hour))
			defer restarted.close()

			again, err := restarted.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(25))
			So(err, ShouldBeNil)
			_, err = restarted.service.ReportPayment(ctx, testWallet, model.PaymentPurposeTopUp, again.QuoteID, testHash)
			So(pkgerrors.Cause(err), ShouldEqual, ErrTransactionMismatch)

			restarted.service.Wait()
			So(len(restarted.notifier.sent()), ShouldEqual, 0)
		})

		Convey("a transaction reported before it is mined is checked against its block", func() {
			restarted := newFixtureWith(f.store, f.chain, testNow.Add(time.Hour))
			defer restarted.close()

			again, err := restarted.service.QuoteTopUp(ctx, testWallet, conv.FromFloat(25))
			So(err, ShouldBeNil)
			f.chain.lock.Lock()
			f.chain.txs[testHash].BlockNumber = ""
			f.chain.lock.Unlock()

			_, err = restarted.service.ReportPayment(ctx, testWallet, model.PaymentPurposeTopUp, again.QuoteID, testHash)
			So(err, ShouldBeNil)
			restarted.service.Wait()

			payment, _ := restarted.service.GetPayment(testHash)
			So(payment.State, ShouldEqual, model.PaymentStateFailed)
			So(payment.Error, ShouldContainSubstring, "mined before the quote")
			So(len(restarted.notifier.sent()), ShouldEqual, 0)
		})
	})
}

func TestMinedAfterQuote(t *testing.T) {
	Convey("Given a registration quote", t, func() {
		f := newFixture()
		defer f.close()
		ctx := context.Background()
		intent, err := f.service.QuoteRegistration(ctx, testWallet, validForm())
		So(err, ShouldBeNil)
		f.payQuote(intent, testHash)

		Convey("a block timestamp slightly behind the quote is tolerated", func() {
			f.service.cfg.Payments.BlockTimeSkew = time.Minute
			f.chain.setMinedAt(testNow.Add(-30 * time.Second))
			_, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, testHash)
			So(err, ShouldBeNil)
		})

		Convey("an unknown block is an error", func() {
			f.chain.lock.Lock()
			f.chain.txs[testHash].BlockNumber = "0x11"
			f.chain.lock.Unlock()
			_, err := f.service.ReportPayment(ctx, testWallet, model.PaymentPurposeRegistration, intent.QuoteID, testHash)
			So(pkgerrors.Cause(err), ShouldEqual, chain.ErrBlockNotFound)
		})
	})
}

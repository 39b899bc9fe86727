package gostop_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/unchained-card/card_api/lib/gostop"
)

func TestCancelAndWait(t *testing.T) {
	Convey("Given a registered worker", t, func() {
		g := gostop.New()
		var stopped int32
		started := make(chan struct{})

		g.Go("worker", func(ctx context.Context, wait *sync.WaitGroup) {
			close(started)
			<-ctx.Done()
			atomic.StoreInt32(&stopped, 1)
			wait.Done()
		}, false)
		<-started

		Convey("CancelAndWait returns only after the worker finished", func() {
			g.CancelAndWait("worker")
			So(atomic.LoadInt32(&stopped), ShouldEqual, 1)
		})

		Convey("Unknown workers are ignored", func() {
			So(g.CancelAndWait("missing"), ShouldEqual, g)
			g.CancelAndWait("worker")
		})
	})
}

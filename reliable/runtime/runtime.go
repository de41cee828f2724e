// Package runtime provides panic containment for background work. The outbox
// dispatcher must survive any per-tick failure, so its loop body runs behind
// RecoverAndLog and auxiliary goroutines start through SafeGo.
package runtime

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
)

// RecoverAndLog recovers from a panic and logs it with the stack trace.
// Use in defer statements for workers that must keep running.
func RecoverAndLog(ctx context.Context, logger log.Logger, component, name string) {
	if r := recover(); r != nil {
		logPanic(ctx, logger, component, name, r)
	}
}

// SafeGo starts fn on a new goroutine with panic recovery. A panicking fn is
// logged and the goroutine exits; the process is never taken down.
func SafeGo(logger log.Logger, name string, fn func()) {
	go func() {
		defer RecoverAndLog(context.Background(), logger, "runtime", name)

		fn()
	}()
}

func logPanic(ctx context.Context, logger log.Logger, component, name string, recovered any) {
	if logger == nil {
		logger = log.NewNop()
	}

	logger.Log(ctx, log.LevelError, "recovered from panic",
		log.String("component", component),
		log.String("name", name),
		log.String("panic", fmt.Sprintf("%v", recovered)),
		log.String("stack", string(debug.Stack())),
	)
}

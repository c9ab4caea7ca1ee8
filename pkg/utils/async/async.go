package async

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/utils/errutil"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
)

// Detach returns a background context that keeps the logger of ctx.
// The returned context is not canceled when ctx is.
func Detach(ctx context.Context) context.Context {
	bgCtx := context.Background()
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}
	return bgCtx
}

// Go runs handler in a new goroutine on a detached context. A panic in handler is
// recovered and reported as an error. done is always called exactly once after
// handler settles, with the handler's error or the recovered panic.
func Go(ctx context.Context, handler func(ctx context.Context) error, done func(err error)) {
	bgCtx := Detach(ctx)

	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = goerr.New("panic in async handler", goerr.V("panic", fmt.Sprint(r)))
			}
			if err != nil {
				_ = errutil.Handle(bgCtx, err, "async handler failed")
			}
			if done != nil {
				done(err)
			}
		}()

		err = handler(bgCtx)
	}()
}

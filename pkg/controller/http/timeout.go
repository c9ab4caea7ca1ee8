package http

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/utils/errutil"
	"github.com/secmon-lab/tonecheck/pkg/utils/safe"
)

// timeoutMiddleware answers 408 when the handler does not finish within d.
// The handler writes into a buffer that is discarded on timeout.
func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			bw := &bufferedWriter{header: make(http.Header)}
			done := make(chan struct{})
			panicCh := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicCh <- p
					}
				}()
				next.ServeHTTP(bw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicCh:
				panic(p)

			case <-done:
				bw.mu.Lock()
				defer bw.mu.Unlock()
				for k, v := range bw.header {
					w.Header()[k] = v
				}
				if bw.status == 0 {
					bw.status = http.StatusOK
				}
				w.WriteHeader(bw.status)
				safe.Write(ctx, w, bw.buf.Bytes())

			case <-ctx.Done():
				bw.mu.Lock()
				bw.timedOut = true
				bw.mu.Unlock()
				errutil.HandleHTTP(r.Context(), w,
					goerr.Wrap(ctx.Err(), "request handling timed out", goerr.V("timeout", d.String())),
					http.StatusRequestTimeout, "request timeout")
			}
		})
	}
}

type bufferedWriter struct {
	mu       sync.Mutex
	header   http.Header
	buf      bytes.Buffer
	status   int
	timedOut bool
}

func (w *bufferedWriter) Header() http.Header {
	return w.header
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.buf.Write(p)
}

func (w *bufferedWriter) WriteHeader(status int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut || w.status != 0 {
		return
	}
	w.status = status
}

package safe

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
)

// Close closes closer and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", slog.Any("error", err))
	}
}

// Write writes data to w and logs a failure. A nil writer is ignored.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write", slog.Any("error", err))
	}
}

// DrainBody discards the rest of an HTTP response body and closes it so the
// underlying connection can be reused.
func DrainBody(ctx context.Context, resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		logging.From(ctx).Debug("failed to drain response body", slog.Any("error", err))
	}
	Close(ctx, resp.Body)
}

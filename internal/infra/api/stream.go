package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"creator-checkout/internal/infra/logging"
	"creator-checkout/internal/infra/metrics"
)

// GET /notifications/subscribe proxies the backend event stream chunk by chunk.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logging.With(ctx, s.log)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	body, err := s.stream.OpenNotifications(ctx, s.session(r), r.Header.Get("Last-Event-ID"))
	if err != nil {
		metrics.StreamRefused()
		l.Warn().Err(err).Msg("backend notification stream unavailable")
		http.Error(w, "notification stream unavailable", http.StatusBadGateway)
		return
	}
	defer body.Close()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.StreamOpened()
	outcome := pump(ctx, w, flusher, body)
	metrics.StreamClosed(outcome)
	l.Debug().Str("outcome", outcome).Msg("notification stream closed")
}

// pump copies src to w, flushing after every read. It returns how the stream ended.
func pump(ctx context.Context, w io.Writer, f http.Flusher, src io.Reader) string {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return "client_closed"
			}
			f.Flush()
		}
		if err == nil {
			continue
		}
		switch {
		case ctx.Err() != nil:
			return "client_closed"
		case errors.Is(err, io.EOF):
			return "backend_closed"
		default:
			_, _ = io.WriteString(w, "event: error\ndata: stream interrupted\n\n")
			f.Flush()
			return "backend_error"
		}
	}
}

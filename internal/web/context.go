package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/inventory/internal/audit"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so audit
// entries record who changed the dataset. RemoteAddr has already been
// rewritten by TrustedRealIP when the request came through a known proxy.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return audit.ContextWithClient(ctx, ip, r.UserAgent())
}

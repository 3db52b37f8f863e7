package noctx

import (
	"context"
	"net/http"
)

func bad() {
	_, _ = http.NewRequest(http.MethodGet, "https://example.com", nil) // want "http.NewRequest sends a request without context"
	_, _ = http.Get("https://example.com")                            // want "http.Get sends a request without context"
}

func good(ctx context.Context) {
	_, _ = http.NewRequestWithContext(ctx, http.MethodGet, "https://example.com", nil)
}

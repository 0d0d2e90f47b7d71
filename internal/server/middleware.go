package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/websocket"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture status and size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// loggingMiddleware assigns a request ID, logs the request, and pushes a
// request event to the dashboard.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		s.totalRequests.Add(1)

		s.logger.WithRequestID(requestID).Info("Request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.statusCode),
			zap.Int64("size", rw.size),
			zap.Duration("duration", duration),
			zap.String("client_ip", getClientIP(r)))

		if s.config.WebSocket.Enabled {
			s.wsHub.BroadcastEvent(websocket.Event{
				Type:      websocket.EventTypeRequestLog,
				Timestamp: time.Now(),
				RequestID: requestID,
				Data: websocket.RequestLogEvent{
					RequestID:  requestID,
					Method:     r.Method,
					Path:       r.URL.Path,
					StatusCode: rw.statusCode,
					ClientIP:   getClientIP(r),
					Duration:   duration,
				},
			})
		}
	})
}

// rateLimitMiddleware throttles requests per client IP
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.allow(getClientIP(r)) {
			s.logger.Warn("Rate limit exceeded",
				zap.String("client_ip", getClientIP(r)),
				zap.String("path", r.URL.Path))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientLimiter keeps one token bucket per client IP
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	rate    rate.Limit
	burst   int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*clientBucket),
		rate:    rate.Limit(float64(cfg.RequestsPerMin) / 60.0),
		burst:   cfg.Burst,
	}
}

func (cl *clientLimiter) allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	bucket, ok := cl.clients[ip]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(cl.rate, cl.burst)}
		cl.clients[ip] = bucket
	}
	bucket.lastSeen = time.Now()
	return bucket.limiter.Allow()
}

// janitor drops buckets for clients idle longer than 10 minutes
func (cl *clientLimiter) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cl.mu.Lock()
		for ip, bucket := range cl.clients {
			if time.Since(bucket.lastSeen) > 10*time.Minute {
				delete(cl.clients, ip)
			}
		}
		cl.mu.Unlock()
	}
}

// getClientIP extracts the real client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getRequestID returns the request ID stored by loggingMiddleware
func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

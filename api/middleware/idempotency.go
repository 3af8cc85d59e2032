package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/drinkroute/distribution-backend/api/responses"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
	pkgredis "github.com/drinkroute/distribution-backend/pkg/redis"
	"github.com/drinkroute/distribution-backend/pkg/types"
)

const (
	// defaultIdempotencyTTL covers directory writes that move no stock.
	defaultIdempotencyTTL = 24 * time.Hour
	// criticalIdempotencyTTL covers every ledger transfer; drivers may
	// replay a queued request days after losing signal on a route.
	criticalIdempotencyTTL = 7 * 24 * time.Hour
)

// A "*" segment matches exactly one path segment, including chi
// placeholders such as {dispatchId}.
var idempotentRoutes = []struct {
	method   string
	template string
	ttl      time.Duration
}{
	{http.MethodPost, "/api/v1/admin/products", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/admin/shops", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/admin/counterparties", defaultIdempotencyTTL},
	{http.MethodPost, "/api/v1/admin/users", defaultIdempotencyTTL},

	{http.MethodPost, "/api/v1/admin/incoming", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/admin/dispatches", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/driver/dispatches/*/accept", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/driver/shop-orders", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/counterparty-sales", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/driver/returns/*", criticalIdempotencyTTL},
	{http.MethodPost, "/api/v1/debts/*/*/payments", criticalIdempotencyTTL},
}

// uncachedCodes are client errors whose outcome depends on ledger state that
// may change, so a retry under the same key must reach the handler again.
var uncachedCodes = map[pkgerrors.Code]struct{}{
	pkgerrors.CodeInsufficientStock: {},
	pkgerrors.CodeRateLimit:         {},
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the first final response recorded for an
// Idempotency-Key. Server errors and stock shortages are not recorded. Keys are scoped to the caller, method and path, and a key
// reused with a different body is rejected.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			hash := hex.EncodeToString(sum[:])
			key := store.IdempotencyKey(UserIDFromContext(ctx)+"|"+r.Method+"|"+r.URL.Path, clientKey)

			prior, err := lookupResponse(ctx, store, key)
			switch {
			case err != nil:
				responses.WriteError(ctx, logg, w, err)
				return
			case prior != nil && prior.RequestHash != hash:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
				return
			case prior != nil:
				prior.replay(w)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if !cacheable(status, capture.body.Bytes()) {
				return
			}
			rememberResponse(ctx, logg, store, key, ttl, storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				RequestHash: hash,
			})
		})
	}
}

func cacheable(status int, body []byte) bool {
	if status >= http.StatusInternalServerError {
		return false
	}
	if status < http.StatusBadRequest {
		return true
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return true
	}
	_, skip := uncachedCodes[pkgerrors.Code(envelope.Error.Code)]
	return !skip
}

func lookupResponse(ctx context.Context, store pkgredis.IdempotencyStore, key string) (*storedResponse, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}

	var rec storedResponse
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		_ = store.Del(ctx, key)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &rec, nil
}

func rememberResponse(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, ttl time.Duration, rec storedResponse) {
	payload, err := json.Marshal(rec)
	if err == nil {
		_, err = store.SetNX(ctx, key, string(payload), ttl)
	}
	if err != nil && logg != nil {
		logg.Error(ctx, "persist idempotency record", err)
	}
}

func (s *storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

// routePattern prefers the chi template. Inside a mounted subrouter the
// template still ends in a wildcard, so the raw path is used instead.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.Contains(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, path string) (time.Duration, bool) {
	if path == "" {
		return 0, false
	}
	for _, route := range idempotentRoutes {
		if route.method == method && templateMatches(route.template, path) {
			return route.ttl, true
		}
	}
	return 0, false
}

func templateMatches(template, path string) bool {
	want := strings.Split(strings.Trim(template, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i, seg := range want {
		if seg != "*" && seg != got[i] {
			return false
		}
	}
	return true
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Auth cache (stale-while-revalidate) ---

type cacheEntry struct {
	name       string
	expiresAt  time.Time
	refreshing atomic.Bool
}

type authCache struct {
	store sync.Map // map[string]*cacheEntry (keyed by full API key)
	ttl   time.Duration
}

func newAuthCache(ttl time.Duration) *authCache {
	return &authCache{ttl: ttl}
}

func (c *authCache) get(key string) (name string, hit bool, needsRefresh bool) {
	v, ok := c.store.Load(key)
	if !ok {
		return "", false, false
	}
	entry := v.(*cacheEntry)
	if time.Now().Before(entry.expiresAt) {
		return entry.name, true, false // fresh
	}
	// Stale: serve the cached value but let exactly one goroutine refresh.
	needsRefresh = entry.refreshing.CompareAndSwap(false, true)
	return entry.name, true, needsRefresh
}

func (c *authCache) set(key, name string) {
	c.store.Store(key, &cacheEntry{
		name:      name,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// --- Auth middleware ---

// authMiddleware validates the Bearer API key. With a credential store
// configured, keys are matched by prefix and verified with bcrypt behind
// a stale-while-revalidate cache; otherwise the key is compared against
// the statically configured one.
func (d *Dependencies) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	cache := newAuthCache(d.CacheTTL)

	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResp{Error: "unauthorized", Message: "Missing or invalid Authorization header"})
			return
		}

		if d.Store == nil {
			if subtle.ConstantTimeCompare([]byte(token), []byte(d.Cfg.APIKey)) != 1 {
				writeJSON(w, http.StatusUnauthorized, ErrorResp{Error: "unauthorized", Message: "Invalid API key"})
				return
			}
			next(w, r)
			return
		}

		if len(token) < 8 || !strings.HasPrefix(token, "bsk_") {
			writeJSON(w, http.StatusUnauthorized, ErrorResp{Error: "unauthorized", Message: "Invalid API key format"})
			return
		}

		name, hit, needsRefresh := cache.get(token)
		if hit && needsRefresh {
			// Stale hit: answer from cache, refresh in the background.
			go d.refreshAuth(cache, token)
		}
		if hit && name != "" {
			next(w, r)
			return
		}

		if err := d.verifyCredential(r.Context(), cache, token); err != nil {
			d.Logger.Warn("auth failed", zap.Error(err))
			writeJSON(w, http.StatusUnauthorized, ErrorResp{Error: "unauthorized", Message: "Invalid API key"})
			return
		}
		next(w, r)
	}
}

// verifyCredential validates an API key against the credential store and
// primes the cache.
func (d *Dependencies) verifyCredential(ctx context.Context, cache *authCache, token string) error {
	cred, err := d.Store.LookupByPrefix(ctx, token[:8])
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("credential not found for prefix")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.KeyHash), []byte(token)); err != nil {
		return err
	}
	cache.set(token, cred.Name)
	return nil
}

// refreshAuth refreshes a stale cache entry in the background.
func (d *Dependencies) refreshAuth(cache *authCache, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.verifyCredential(ctx, cache, token); err != nil {
		d.Logger.Warn("background auth refresh failed", zap.Error(err))
	}
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}

// --- JSON helpers ---

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// readJSON decodes a JSON request body into the given pointer.
func readJSON(r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Request logging ---

func requestLogging(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// --- CORS ---

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

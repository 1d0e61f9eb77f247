package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/johnqh/heavymath/internal/ports"
)

const (
	// Rate limit conservador: los feeds de porcentaje cambian despacio.
	feedRatePerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// HTTPFeed es el cliente de un servicio de feeds de porcentaje, con rate
// limiting y retries. Para cada ref expone GET /feeds/{ref} y
// POST /feeds/{ref}/consume.
type HTTPFeed struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewHTTPFeed crea un cliente contra el base URL dado.
func NewHTTPFeed(base string) *HTTPFeed {
	return &HTTPFeed{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(feedRatePerSec, 5),
	}
}

// feedResponse es el wire format del servicio de feeds.
type feedResponse struct {
	Percentage int   `json:"percentage"`
	Timestamp  int64 `json:"timestamp"` // unix seconds
	Valid      bool  `json:"valid"`
}

// GetData devuelve el dato actual del feed ref.
func (f *HTTPFeed) GetData(ctx context.Context, ref string) (ports.OracleData, error) {
	var out feedResponse
	url := fmt.Sprintf("%s/feeds/%s", f.base, ref)
	if err := f.doWithRetry(ctx, http.MethodGet, url, &out); err != nil {
		return ports.OracleData{}, fmt.Errorf("oracle.GetData: %s: %w", ref, err)
	}
	return ports.OracleData{
		Percentage: out.Percentage,
		Timestamp:  time.Unix(out.Timestamp, 0).UTC(),
		Valid:      out.Valid,
	}, nil
}

// MarkConsumed notifica al feed que su dato liquidó un pool.
func (f *HTTPFeed) MarkConsumed(ctx context.Context, ref string) error {
	url := fmt.Sprintf("%s/feeds/%s/consume", f.base, ref)
	if err := f.doWithRetry(ctx, http.MethodPost, url, nil); err != nil {
		return fmt.Errorf("oracle.MarkConsumed: %s: %w", ref, err)
	}
	return nil
}

// doWithRetry ejecuta la request con backoff exponencial, reintentando
// 429 y 5xx.
func (f *HTTPFeed) doWithRetry(ctx context.Context, method, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			f.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("oracle feed retrying", "status", resp.StatusCode, "attempt", attempt+1)
			f.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		if out == nil {
			resp.Body.Close()
			return nil
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (f *HTTPFeed) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/sony/gobreaker"

	apperrors "firefight-trader/internal/errors"
	"firefight-trader/internal/models"
	"firefight-trader/pkg/utils"
)

const (
	angelBaseURL   = "https://apiconnect.angelbroking.com"
	loginPath      = "/rest/auth/angelbroking/user/v1/loginByPassword"
	logoutPath     = "/rest/secure/angelbroking/user/v1/logout"
	quotePath      = "/rest/secure/angelbroking/market/v1/quote/"
	scripMasterURL = "https://margincalculator.angelbroking.com/OpenAPI_File/files/OpenAPIScripMaster.json"
)

// AngelOneBroker implements the Broker interface against the Angel One
// SmartAPI HTTP endpoints. Two-factor login uses a TOTP generated from
// the configured shared secret.
type AngelOneBroker struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker

	apiKey     string
	clientID   string
	pin        string
	totpSecret string

	sessionPath string

	mu       sync.RWMutex
	jwtToken string
}

// AngelOneConfig holds configuration for the Angel One broker.
type AngelOneConfig struct {
	APIKey      string
	ClientID    string
	PIN         string
	TOTPSecret  string
	SessionPath string
	Timeout     time.Duration
}

// NewAngelOneBroker creates a broker instance and loads any saved
// session from disk. Quote calls run behind a circuit breaker so a
// flapping API degrades to "keep prior prices" instead of hammering
// the endpoint.
func NewAngelOneBroker(cfg AngelOneConfig) *AngelOneBroker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	b := &AngelOneBroker{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      cfg.APIKey,
		clientID:    cfg.ClientID,
		pin:         cfg.PIN,
		totpSecret:  cfg.TOTPSecret,
		sessionPath: cfg.SessionPath,
	}
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "angelone-quotes",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.ConsecutiveFailures >= 3
		},
	})

	_ = b.loadSession()
	return b
}

// sessionData represents persisted session data.
type sessionData struct {
	JWTToken  string    `json:"jwt_token"`
	ClientID  string    `json:"client_id"`
	CreatedAt time.Time `json:"created_at"`
}

// apiEnvelope is the common SmartAPI response wrapper.
type apiEnvelope struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

// Login authenticates with client code, PIN, and a fresh TOTP. A still
// valid persisted session is reused without hitting the API.
func (b *AngelOneBroker) Login(ctx context.Context) error {
	if b.IsAuthenticated() {
		return nil
	}
	if b.apiKey == "" || b.clientID == "" || b.pin == "" || b.totpSecret == "" {
		return apperrors.ErrInvalidCredentials
	}

	code, err := totp.GenerateCode(b.totpSecret, time.Now())
	if err != nil {
		return apperrors.Wrap(err, "generating TOTP")
	}

	body := map[string]string{
		"clientcode": b.clientID,
		"password":   b.pin,
		"totp":       code,
	}

	var data struct {
		JWTToken     string `json:"jwtToken"`
		RefreshToken string `json:"refreshToken"`
		FeedToken    string `json:"feedToken"`
	}
	if err := b.post(ctx, loginPath, body, &data); err != nil {
		return apperrors.NewUpstreamError("login", "login failed", err)
	}
	if data.JWTToken == "" {
		return apperrors.NewUpstreamError("login", "no session token in response", nil)
	}

	b.mu.Lock()
	b.jwtToken = data.JWTToken
	b.mu.Unlock()

	if err := b.saveSession(); err != nil {
		// Session is valid in memory; persistence is best-effort.
		fmt.Fprintf(os.Stderr, "warning: failed to persist session: %v\n", err)
	}
	return nil
}

// Logout invalidates the session and removes the persisted token.
func (b *AngelOneBroker) Logout(ctx context.Context) error {
	b.mu.Lock()
	authenticated := b.jwtToken != ""
	b.jwtToken = ""
	b.mu.Unlock()

	if authenticated {
		_ = b.post(ctx, logoutPath, map[string]string{"clientcode": b.clientID}, nil)
	}

	if b.sessionPath == "" {
		return nil
	}
	if err := os.Remove(b.sessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// IsAuthenticated returns whether a session token is held.
func (b *AngelOneBroker) IsAuthenticated() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jwtToken != ""
}

// GetQuotes fetches last-traded prices for the given tokens in a single
// FULL-mode market data call. Tokens the API does not return are simply
// absent from the result; callers keep their prior prices.
func (b *AngelOneBroker) GetQuotes(ctx context.Context, tokensByExchange map[models.Exchange][]string) (map[string]float64, error) {
	if !b.IsAuthenticated() {
		return nil, apperrors.ErrNotAuthenticated
	}

	exchangeTokens := make(map[string][]string, len(tokensByExchange))
	for exchange, tokens := range tokensByExchange {
		exchangeTokens[string(exchange)] = tokens
	}
	body := map[string]interface{}{
		"mode":           "FULL",
		"exchangeTokens": exchangeTokens,
	}

	result, err := b.breaker.Execute(func() (interface{}, error) {
		var data struct {
			Fetched []struct {
				SymbolToken string  `json:"symbolToken"`
				LTP         float64 `json:"ltp"`
			} `json:"fetched"`
		}
		if err := b.post(ctx, quotePath, body, &data); err != nil {
			return nil, err
		}
		prices := make(map[string]float64, len(data.Fetched))
		for _, item := range data.Fetched {
			prices[item.SymbolToken] = item.LTP
		}
		return prices, nil
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError("quotes", "market data fetch failed", err)
	}
	return result.(map[string]float64), nil
}

// post sends an authenticated SmartAPI request and unmarshals the data
// payload, retrying transient failures with backoff.
func (b *AngelOneBroker) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	return utils.Retry(ctx, utils.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, angelBaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-UserType", "USER")
		req.Header.Set("X-SourceID", "WEB")
		req.Header.Set("X-ClientLocalIP", "127.0.0.1")
		req.Header.Set("X-ClientPublicIP", "127.0.0.1")
		req.Header.Set("X-MACAddress", "00:00:00:00:00:00")
		req.Header.Set("X-PrivateKey", b.apiKey)

		b.mu.RLock()
		token := b.jwtToken
		b.mu.RUnlock()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		var envelope apiEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		if !envelope.Status {
			return apperrors.NewBrokerError(envelope.ErrorCode, envelope.Message, nil)
		}
		if out != nil && len(envelope.Data) > 0 {
			if err := json.Unmarshal(envelope.Data, out); err != nil {
				return fmt.Errorf("decoding data payload: %w", err)
			}
		}
		return nil
	})
}

func (b *AngelOneBroker) loadSession() error {
	if b.sessionPath == "" {
		return nil
	}
	data, err := os.ReadFile(b.sessionPath)
	if err != nil {
		return err
	}
	var session sessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}
	// SmartAPI sessions expire daily; a token from another day is dead.
	if session.ClientID != b.clientID || !sameDay(session.CreatedAt, time.Now()) {
		return apperrors.ErrSessionExpired
	}
	b.mu.Lock()
	b.jwtToken = session.JWTToken
	b.mu.Unlock()
	return nil
}

func (b *AngelOneBroker) saveSession() error {
	if b.sessionPath == "" {
		return nil
	}
	session := sessionData{
		JWTToken:  b.jwtToken,
		ClientID:  b.clientID,
		CreatedAt: time.Now(),
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.sessionPath), 0700); err != nil {
		return err
	}
	return os.WriteFile(b.sessionPath, data, 0600)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

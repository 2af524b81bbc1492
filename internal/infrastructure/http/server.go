package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"
)

// MarketData is the price and history lookup used by the asset routes.
type MarketData interface {
	GetAssetPrice(ctx context.Context, asset domain.Asset) (string, error)
	GetAssetHistoricalData(ctx context.Context, asset domain.Asset) ([]domain.MonthlyPoint, error)
}

// Snapshots queues refreshes and serves persisted prices.
type Snapshots interface {
	RequestRefresh(ctx context.Context, asset domain.Asset, idem *string) (string, error)
	GetRefresh(ctx context.Context, id string) (domain.RefreshJob, error)
	GetLastSnapshot(ctx context.Context, symbol string, assetType domain.AssetType) (domain.PriceSnapshot, error)
}

var (
	_ MarketData = (*application.MarketDataService)(nil)
	_ Snapshots  = (*application.SnapshotService)(nil)
)

type Server struct {
	md    MarketData
	snaps Snapshots
	ping  func(ctx context.Context) error
}

func NewServer(md MarketData, snaps Snapshots) *Server {
	return &Server{md: md, snaps: snaps}
}

// SetReadyCheck installs the probe used by /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

type PriceResponse struct {
	Symbol string           `json:"symbol"`
	Type   domain.AssetType `json:"type"`
	Price  string           `json:"price"`
}

type HistoricalResponse struct {
	Symbol string                `json:"symbol"`
	Type   domain.AssetType      `json:"type"`
	Points []domain.MonthlyPoint `json:"points"`
}

type RefreshResponse struct {
	UpdateID string `json:"update_id"`
}

type RefreshStatus string

const (
	Pending   RefreshStatus = "pending"
	Completed RefreshStatus = "completed"
	Failed    RefreshStatus = "failed"
)

type RefreshDetails struct {
	UpdateID  string           `json:"update_id"`
	Symbol    string           `json:"symbol"`
	Type      domain.AssetType `json:"type"`
	Status    RefreshStatus    `json:"status"`
	Error     *string          `json:"error,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type SnapshotResponse struct {
	Symbol    string           `json:"symbol"`
	Type      domain.AssetType `json:"type"`
	Price     string           `json:"price"`
	Source    string           `json:"source"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (s *Server) GetAssetPrice(w http.ResponseWriter, r *http.Request) {
	asset, ok := bindAsset(w, r)
	if !ok {
		return
	}
	price, err := s.md.GetAssetPrice(r.Context(), asset)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PriceResponse{Symbol: asset.Symbol, Type: asset.Type, Price: price})
}

func (s *Server) GetAssetHistoricalData(w http.ResponseWriter, r *http.Request) {
	asset, ok := bindAsset(w, r)
	if !ok {
		return
	}
	points, err := s.md.GetAssetHistoricalData(r.Context(), asset)
	if err != nil {
		fail(w, r, err)
		return
	}
	if points == nil {
		points = []domain.MonthlyPoint{}
	}
	writeJSON(w, http.StatusOK, HistoricalResponse{Symbol: asset.Symbol, Type: asset.Type, Points: points})
}

func (s *Server) RequestRefresh(w http.ResponseWriter, r *http.Request) {
	var asset domain.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var idem *string
	if k := r.Header.Get("X-Idempotency-Key"); k != "" {
		idem = &k
	}
	id, err := s.snaps.RequestRefresh(r.Context(), asset, idem)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, RefreshResponse{UpdateID: id})
}

func (s *Server) GetRefresh(w http.ResponseWriter, r *http.Request) {
	job, err := s.snaps.GetRefresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshDetails{
		UpdateID:  job.ID,
		Symbol:    job.Asset.Symbol,
		Type:      job.Asset.Type,
		Status:    mapStatus(job.Status),
		Error:     job.Error,
		UpdatedAt: job.UpdatedAt,
	})
}

func (s *Server) GetLastSnapshot(w http.ResponseWriter, r *http.Request) {
	var symbol, typ string
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "symbol", q, &symbol); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "type", q, &typ); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, ok := domain.ParseAssetType(typ)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown asset type "+typ)
		return
	}
	snap, err := s.snaps.GetLastSnapshot(r.Context(), symbol, t)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotResponse{
		Symbol:    snap.Symbol,
		Type:      snap.Type,
		Price:     domain.FormatDecimal(snap.Price),
		Source:    snap.Source,
		UpdatedAt: snap.UpdatedAt,
	})
}

// bindAsset reads an asset from the query string. Optional fields stay empty
// when absent.
func bindAsset(w http.ResponseWriter, r *http.Request) (domain.Asset, bool) {
	q := r.URL.Query()
	var a domain.Asset
	var typ string
	binds := []struct {
		name     string
		required bool
		dest     *string
	}{
		{"symbol", true, &a.Symbol},
		{"type", true, &typ},
		{"name", false, &a.Name},
		{"id", false, &a.ID},
		{"base", false, &a.Base},
		{"quote", false, &a.Quote},
		{"price_usd", false, &a.PriceUSD},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, b.required, b.name, q, b.dest); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return domain.Asset{}, false
		}
	}
	a.Type = domain.AssetType(typ)
	if t, ok := domain.ParseAssetType(typ); ok {
		a.Type = t
	}
	if err := a.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.Asset{}, false
	}
	return a, true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAsset),
		errors.Is(err, domain.ErrUnsupportedAssetType),
		errors.Is(err, application.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPriceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrMissingCredentials):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrUpstreamUnavailable),
		errors.Is(err, domain.ErrUnexpectedShape):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		logx.WithFields(r.Context(), nil).Error("request_failed", zap.Error(err))
		msg = http.StatusText(code)
	}
	writeError(w, code, msg)
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func mapStatus(s domain.RefreshStatus) RefreshStatus {
	switch s {
	case domain.RefreshStatusDone:
		return Completed
	case domain.RefreshStatusFailed:
		return Failed
	default:
		return Pending
	}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sdfghub/property-sub001/internal/allocation"
	"github.com/sdfghub/property-sub001/internal/billing"
	"github.com/sdfghub/property-sub001/internal/export"
	"github.com/sdfghub/property-sub001/internal/models"
)

// Allocator runs the allocation of one expense.
type Allocator interface {
	Allocate(ctx context.Context, expenseID string) (*allocation.Result, error)
}

// Rebiller regenerates the bills of one period.
type Rebiller interface {
	Rebill(ctx context.Context, periodID string) (*billing.RebillResult, error)
}

// BillReader reads persisted bills for export.
type BillReader interface {
	GetPeriod(ctx context.Context, periodID string) (*models.Period, error)
	ListBills(ctx context.Context, periodID string) ([]models.Bill, error)
}

// BillingService exposes the allocation and billing triggers over HTTP.
type BillingService struct {
	allocator Allocator
	rebiller  Rebiller
	bills     BillReader
}

// NewBillingService creates a new BillingService.
func NewBillingService(allocator Allocator, rebiller Rebiller, bills BillReader) *BillingService {
	return &BillingService{allocator: allocator, rebiller: rebiller, bills: bills}
}

// Register mounts the service routes on mux. protect wraps the routes that
// trigger or expose billing work.
func (s *BillingService) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /bills/{periodId}", protect(http.HandlerFunc(s.Rebill)))
	mux.Handle("GET /bills/{periodId}/export.xlsx", protect(http.HandlerFunc(s.ExportBills)))
	mux.Handle("POST /expenses/{expenseId}/allocate", protect(http.HandlerFunc(s.Allocate)))
}

// Rebill handles GET /bills/{periodId}.
func (s *BillingService) Rebill(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("periodId")
	slog.Info("Rebill request received", "period_id", periodID)

	res, err := s.rebiller.Rebill(r.Context(), periodID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Allocate handles POST /expenses/{expenseId}/allocate.
func (s *BillingService) Allocate(w http.ResponseWriter, r *http.Request) {
	expenseID := r.PathValue("expenseId")
	slog.Info("Allocate request received", "expense_id", expenseID)

	res, err := s.allocator.Allocate(r.Context(), expenseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ExportBills handles GET /bills/{periodId}/export.xlsx.
func (s *BillingService) ExportBills(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("periodId")

	period, err := s.bills.GetPeriod(r.Context(), periodID)
	if err != nil {
		writeError(w, err)
		return
	}
	bills, err := s.bills.ListBills(r.Context(), periodID)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := export.BillWorkbook(period.Code, bills)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("Bills exported", "period_id", periodID, "bills", len(bills))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bills-%s.xlsx"`, period.Code))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case models.IsNotFound(err):
		return http.StatusNotFound
	case models.IsConfigError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

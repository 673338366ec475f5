package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"strata/internal/core"
	"strata/internal/finance"
	"strata/internal/storage"
)

type feeTierResponse struct {
	StrataID    int64  `json:"strata_id"`
	TierID      string `json:"tier_id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

func (s *Server) handleFeeTiers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listFeeTiers(w, r)
	case http.MethodPost:
		s.createFeeTier(w, r)
	case http.MethodDelete:
		s.deleteFeeTier(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type tierJSON struct {
	TierID   string `json:"tier_id"`
	StrataID int64  `json:"strata_id"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
}

func (s *Server) listFeeTiers(w http.ResponseWriter, r *http.Request) {
	strataID, ok := queryInt64(r, "strata_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "strata_id is required")
		return
	}

	tiers, err := s.store.ListFeeTiers(r.Context(), strataID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list fee tiers", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list fee tiers")
		return
	}

	out := make([]feeTierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, feeTierResponse{
			StrataID:    t.StrataID,
			TierID:      t.ID,
			Name:        t.Name,
			AmountCents: t.Amount.Cents,
			Amount:      t.Amount.String(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createFeeTier(w http.ResponseWriter, r *http.Request) {
	var req tierJSON
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	tier := core.FeeTier{
		ID:       strings.TrimSpace(req.TierID),
		StrataID: req.StrataID,
		Name:     sanitizeInput(req.Name),
		Amount:   amount,
	}
	if err := tier.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreateFeeTier(r.Context(), tier); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create fee tier", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create fee tier")
		return
	}

	s.reports.InvalidateRevenue(tier.StrataID)
	respondJSON(w, http.StatusCreated, feeTierResponse{
		StrataID:    tier.StrataID,
		TierID:      tier.ID,
		Name:        tier.Name,
		AmountCents: tier.Amount.Cents,
		Amount:      tier.Amount.String(),
	})
}

func (s *Server) deleteFeeTier(w http.ResponseWriter, r *http.Request) {
	strataID, ok := queryInt64(r, "strata_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "strata_id is required")
		return
	}
	tierID := strings.TrimSpace(r.URL.Query().Get("id"))
	if tierID == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.store.DeleteFeeTier(r.Context(), strataID, tierID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "fee tier not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete fee tier", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete fee tier")
		return
	}

	s.reports.InvalidateRevenue(strataID)
	respondJSON(w, http.StatusNoContent, nil)
}

type unitResponse struct {
	UnitID     int64  `json:"unit_id"`
	StrataID   int64  `json:"strata_id"`
	UnitNumber string `json:"unit_number"`
	FeeTierID  string `json:"fee_tier_id,omitempty"`
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listUnits(w, r)
	case http.MethodPost:
		s.createUnit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listUnits(w http.ResponseWriter, r *http.Request) {
	strataID, ok := queryInt64(r, "strata_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "strata_id is required")
		return
	}

	units, err := s.store.ListUnitAssignments(r.Context(), strataID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list units", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list units")
		return
	}

	out := make([]unitResponse, 0, len(units))
	for _, u := range units {
		out = append(out, unitResponse{
			UnitID:     u.UnitID,
			StrataID:   u.StrataID,
			UnitNumber: u.UnitNumber,
			FeeTierID:  u.FeeTierID,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createUnit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StrataID   int64  `json:"strata_id"`
		UnitNumber string `json:"unit_number"`
		FeeTierID  string `json:"fee_tier_id,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	unit := core.UnitFeeAssignment{
		StrataID:   req.StrataID,
		UnitNumber: sanitizeInput(req.UnitNumber),
		FeeTierID:  strings.TrimSpace(req.FeeTierID),
	}
	if unit.UnitNumber == "" {
		respondError(w, http.StatusUnprocessableEntity, "unit_number is required")
		return
	}

	id, err := s.store.CreateUnit(r.Context(), unit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create unit", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create unit")
		return
	}
	unit.UnitID = id

	s.reports.InvalidateRevenue(unit.StrataID)
	respondJSON(w, http.StatusCreated, unitResponse{
		UnitID:     unit.UnitID,
		StrataID:   unit.StrataID,
		UnitNumber: unit.UnitNumber,
		FeeTierID:  unit.FeeTierID,
	})
}

func (s *Server) handleAssignUnit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		UnitID    int64  `json:"unit_id"`
		StrataID  int64  `json:"strata_id"`
		FeeTierID string `json:"fee_tier_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	// An empty fee_tier_id unassigns the unit.
	if err := s.store.AssignUnitTier(r.Context(), req.UnitID, strings.TrimSpace(req.FeeTierID)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "unit not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to assign unit tier", "unit_id", req.UnitID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to assign unit tier")
		return
	}

	s.reports.InvalidateRevenue(req.StrataID)
	respondJSON(w, http.StatusOK, nil)
}

type fundResponse struct {
	ID           int64    `json:"id"`
	StrataID     int64    `json:"strata_id"`
	Name         string   `json:"name"`
	BalanceCents int64    `json:"balance_cents"`
	Balance      string   `json:"balance"`
	TargetCents  *int64   `json:"target_cents,omitempty"`
	InterestRate *float64 `json:"interest_rate,omitempty"`
	Compounding  string   `json:"compounding,omitempty"`
}

func toFundResponse(f core.FundSnapshot) fundResponse {
	resp := fundResponse{
		ID:           f.ID,
		StrataID:     f.StrataID,
		Name:         f.Name,
		BalanceCents: f.Balance.Cents,
		Balance:      f.Balance.String(),
		InterestRate: f.InterestRate,
		Compounding:  string(f.Compounding),
	}
	if f.Target != nil {
		cents := f.Target.Cents
		resp.TargetCents = &cents
	}
	return resp
}

func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listFunds(w, r)
	case http.MethodPost:
		s.createFund(w, r)
	case http.MethodPut:
		s.updateFundBalance(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, PUT")
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// updateFundBalance records a new point-in-time balance, typically after
// a bank statement reconciliation.
func (s *Server) updateFundBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      int64  `json:"id"`
		Balance string `json:"balance"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	balance, err := core.ParseMoney(req.Balance)
	if err != nil || balance.Cents < 0 {
		respondError(w, http.StatusUnprocessableEntity, "invalid balance")
		return
	}

	if err := s.store.UpdateFundBalance(r.Context(), req.ID, balance); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "fund not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update fund balance", "fund_id", req.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update fund balance")
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) listFunds(w http.ResponseWriter, r *http.Request) {
	strataID, ok := queryInt64(r, "strata_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "strata_id is required")
		return
	}

	funds, err := s.reports.FundOverview(r.Context(), strataID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list funds", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list funds")
		return
	}

	out := make([]fundResponse, 0, len(funds))
	for _, f := range funds {
		out = append(out, toFundResponse(f))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createFund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StrataID     int64    `json:"strata_id"`
		Name         string   `json:"name"`
		Balance      string   `json:"balance"`
		Target       string   `json:"target,omitempty"`
		InterestRate *float64 `json:"interest_rate,omitempty"`
		Compounding  string   `json:"compounding,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	balance, err := core.ParseMoney(req.Balance)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid balance")
		return
	}

	fund := core.FundSnapshot{
		StrataID:     req.StrataID,
		Name:         sanitizeInput(req.Name),
		Balance:      balance,
		InterestRate: req.InterestRate,
		Compounding:  core.CompoundingFrequency(req.Compounding),
	}
	if strings.TrimSpace(req.Target) != "" {
		target, err := core.ParseMoney(req.Target)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid target")
			return
		}
		fund.Target = &target
	}
	if err := fund.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.CreateFund(r.Context(), fund)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create fund", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create fund")
		return
	}
	fund.ID = id

	respondJSON(w, http.StatusCreated, toFundResponse(fund))
}

type projectionResponse struct {
	FinalBalanceCents  int64                 `json:"final_balance_cents"`
	FinalBalance       string                `json:"final_balance"`
	TotalInterestCents int64                 `json:"total_interest_cents"`
	TotalInterest      string                `json:"total_interest"`
	Breakdown          []monthProjectionJSON `json:"breakdown"`
}

type monthProjectionJSON struct {
	Month         int    `json:"month"`
	BalanceCents  int64  `json:"balance_cents"`
	Balance       string `json:"balance"`
	InterestCents int64  `json:"interest_cents"`
	Interest      string `json:"interest"`
}

func (s *Server) handleFundProjection(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	fundID, ok := queryInt64(r, "fund_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "fund_id is required")
		return
	}
	months := queryInt(r, "months", 12)
	if months < 1 || months > 600 {
		respondError(w, http.StatusUnprocessableEntity, "months must be 1-600")
		return
	}

	proj, err := s.reports.FundProjection(r.Context(), fundID, months)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "fund not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to project fund", "fund_id", fundID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to project fund")
		return
	}

	respondJSON(w, http.StatusOK, toProjectionResponse(proj))
}

func toProjectionResponse(proj finance.FundProjection) projectionResponse {
	resp := projectionResponse{
		FinalBalanceCents:  proj.FinalBalance.Cents,
		FinalBalance:       proj.FinalBalance.String(),
		TotalInterestCents: proj.TotalInterest.Cents,
		TotalInterest:      proj.TotalInterest.String(),
		Breakdown:          make([]monthProjectionJSON, 0, len(proj.Breakdown)),
	}
	for _, m := range proj.Breakdown {
		resp.Breakdown = append(resp.Breakdown, monthProjectionJSON{
			Month:         m.Month,
			BalanceCents:  m.Balance.Cents,
			Balance:       m.Balance.String(),
			InterestCents: m.Interest.Cents,
			Interest:      m.Interest.String(),
		})
	}
	return resp
}

type revenueReportResponse struct {
	ByTier                    map[string]tierRevenueJSON `json:"by_tier"`
	UnassignedUnitCount       int                        `json:"unassigned_unit_count"`
	TotalMonthlyCents         int64                      `json:"total_monthly_cents"`
	TotalMonthly              string                     `json:"total_monthly"`
	EstimatedOutstandingCents int64                      `json:"estimated_outstanding_cents"`
	EstimatedOutstanding      string                     `json:"estimated_outstanding"`
}

type tierRevenueJSON struct {
	TierName      string `json:"tier_name"`
	UnitCount     int    `json:"unit_count"`
	SubtotalCents int64  `json:"subtotal_cents"`
	Subtotal      string `json:"subtotal"`
}

func toRevenueResponse(report finance.RevenueReport) revenueReportResponse {
	resp := revenueReportResponse{
		ByTier:                    make(map[string]tierRevenueJSON, len(report.ByTier)),
		UnassignedUnitCount:       report.UnassignedUnitCount,
		TotalMonthlyCents:         report.TotalMonthly.Cents,
		TotalMonthly:              report.TotalMonthly.String(),
		EstimatedOutstandingCents: report.EstimatedOutstanding.Cents,
		EstimatedOutstanding:      report.EstimatedOutstanding.String(),
	}
	for id, tier := range report.ByTier {
		resp.ByTier[id] = tierRevenueJSON{
			TierName:      tier.TierName,
			UnitCount:     tier.UnitCount,
			SubtotalCents: tier.Subtotal.Cents,
			Subtotal:      tier.Subtotal.String(),
		}
	}
	return resp
}

func (s *Server) handleRevenueReport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	strataID, ok := queryInt64(r, "strata_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "strata_id is required")
		return
	}

	report, err := s.reports.RevenueReport(r.Context(), strataID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to compute revenue report", "strata_id", strataID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute revenue report")
		return
	}

	respondJSON(w, http.StatusOK, toRevenueResponse(report))
}

// handleRevenuePreview computes a revenue report from the request body
// without touching storage. Tiers accept either the structured list or
// the legacy flat name-to-amount map that older imports produce.
func (s *Server) handleRevenuePreview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Tiers []tierJSON        `json:"tiers,omitempty"`
		Flat  map[string]string `json:"flat_tiers,omitempty"`
		Units []struct {
			UnitNumber string `json:"unit_number"`
			FeeTierID  string `json:"fee_tier_id,omitempty"`
		} `json:"units"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	input := finance.TierInput{}
	for _, t := range req.Tiers {
		amount, err := core.ParseMoney(t.Amount)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid tier amount: "+t.Amount)
			return
		}
		input.Tiers = append(input.Tiers, core.FeeTier{ID: t.TierID, Name: t.Name, Amount: amount})
	}
	if len(req.Flat) > 0 {
		input.Flat = make(map[string]core.Money, len(req.Flat))
		for name, amountStr := range req.Flat {
			amount, err := core.ParseMoney(amountStr)
			if err != nil {
				respondError(w, http.StatusUnprocessableEntity, "invalid tier amount: "+amountStr)
				return
			}
			input.Flat[name] = amount
		}
	}

	units := make([]core.UnitFeeAssignment, 0, len(req.Units))
	for i, u := range req.Units {
		units = append(units, core.UnitFeeAssignment{
			UnitID:     int64(i + 1),
			UnitNumber: u.UnitNumber,
			FeeTierID:  u.FeeTierID,
		})
	}

	report := finance.AggregateMonthlyRevenue(input, units)
	respondJSON(w, http.StatusOK, toRevenueResponse(report))
}

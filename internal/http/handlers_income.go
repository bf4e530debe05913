package http

import (
	"net/http"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
)

// maxPropagateMonths caps propagarMeses.
const maxPropagateMonths = 120

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	period, verr := ParsePeriodParams(r.URL.Query(), true)
	if verr != nil {
		BadRequestError("Período inválido", verr.Fields).Write(w)
		return
	}

	rec, err := s.income.Get(r.Context(), period.Year, period.Month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(api.IncomeFrom(rec)).Write(w)
}

func (s *Server) handlePutIncome(w http.ResponseWriter, r *http.Request) {
	var in api.IncomeInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, err, core.FieldTotalIncome)
		return
	}
	if in.PropagateMonths < 0 || in.PropagateMonths > maxPropagateMonths {
		verr := core.NewValidationError()
		verr.Add("propagarMeses", "Meses de propagação devem estar entre 0 e 120.")
		ValidationFailed(verr).Write(w)
		return
	}

	if in.PropagateMonths == 0 {
		rec, err := s.income.Upsert(r.Context(), in.Year, in.Month, in.TotalIncome.Decimal)
		if err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
		NewJSONResponse().Body(api.IncomeFrom(rec)).Write(w)
		return
	}

	rec, failures, err := s.income.Propagate(r.Context(), in.Year, in.Month, in.TotalIncome.Decimal, in.PropagateMonths)
	if err != nil {
		writeError(w, r, applog.OpPropagate, err)
		return
	}
	out := api.IncomeFrom(rec)
	for _, f := range failures {
		out.Failures = append(out.Failures, api.PeriodFailure{Year: f.Year, Month: f.Month, Error: f.Err.Error()})
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	period, verr := ParsePeriodParams(r.URL.Query(), true)
	if verr != nil {
		BadRequestError("Período inválido", verr.Fields).Write(w)
		return
	}

	b, err := s.income.Balance(r.Context(), period.Year, period.Month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(api.BalanceFrom(b)).Write(w)
}

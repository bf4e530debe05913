package http

import (
	"net/http"
	"strings"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/report"
)

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	period, verr := ParsePeriodParams(r.URL.Query(), true)
	if verr != nil {
		BadRequestError("Período inválido", verr.Fields).Write(w)
		return
	}

	key := periodKey(period.Year, period.Month)
	if bills, ok := s.listCache.Get(key); ok {
		NewJSONResponse().Header("X-Cache", "HIT").Body(bills).Write(w)
		return
	}

	gen := s.listGen.Load()
	rows, err := s.bills.List(r.Context(), period.Year, period.Month)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	bills := api.BillsFrom(rows)
	s.cacheList(key, gen, bills)
	NewJSONResponse().Header("X-Cache", "MISS").Body(bills).Write(w)
}

func (s *Server) handleSearchBills(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	period, verr := ParsePeriodParams(query, false)
	if verr != nil {
		BadRequestError("Período inválido", verr.Fields).Write(w)
		return
	}

	rows, err := s.bills.Search(r.Context(), sanitizeInput(query.Get("valor")), period.Year, period.Month)
	if err != nil {
		writeError(w, r, applog.OpSearch, err)
		return
	}
	NewJSONResponse().Body(api.BillsFrom(rows)).Write(w)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var in api.BillInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, err, core.FieldInstallmentAmount)
		return
	}
	in.Name = sanitizeInput(in.Name)

	rows, err := s.bills.Create(r.Context(), in.Request())
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.invalidateLists()

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogBillCreated(r.Context(), in.Name, in.InstallmentAmount.Decimal, len(rows), in.DueDate.String())
	NewJSONResponse().Status(http.StatusCreated).Body(api.BillsFrom(rows)).Write(w)
}

func (s *Server) handleEditBill(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	var in api.BillInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeDecodeError(w, err, core.FieldInstallmentAmount)
		return
	}
	in.Name = sanitizeInput(in.Name)

	rows, err := s.bills.Edit(r.Context(), id, in.Request())
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.invalidateLists()
	NewJSONResponse().Body(api.BillsFrom(rows)).Write(w)
}

func (s *Server) handleSetPaid(paid bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := s.bills.SetPaid(r.Context(), r.PathValue("id"), paid)
		if err != nil {
			writeError(w, r, applog.OpPay, err)
			return
		}
		s.invalidateLists()
		NewJSONResponse().Body(api.BillFrom(row)).Write(w)
	}
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.invalidateLists()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	filter, verr := ParseReportFilter(r.URL.Query())
	if verr != nil {
		BadRequestError("Filtro inválido", verr.Fields).Write(w)
		return
	}

	rep, err := s.bills.Report(r.Context(), filter)
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	pdf, err := report.Render(rep, s.now())
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}

	NewJSONResponse().
		Header("Content-Type", "application/pdf").
		Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`).
		Header("Cache-Control", "no-store").
		Raw(pdf).
		Write(w)
}

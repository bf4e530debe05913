package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"contas/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// PeriodParams holds the ano/mes query pair.
type PeriodParams struct {
	Year  int
	Month int
}

// IsSet reports whether both parts were given.
func (p PeriodParams) IsSet() bool {
	return p.Year != 0 && p.Month != 0
}

// ParsePeriodParams reads ano and mes. When required is false, blank values
// stay zero; values that are present must still be valid.
func ParsePeriodParams(query url.Values, required bool) (PeriodParams, *core.ValidationError) {
	verr := core.NewValidationError()
	var p PeriodParams

	p.Year = parseIntParam(query, core.FieldYear, required, "Ano", verr)
	p.Month = parseIntParam(query, core.FieldMonth, required, "Mês", verr)

	if p.Year != 0 && p.Year < core.MinYear {
		verr.Add(core.FieldYear, "Ano inválido.")
	}
	if p.Month != 0 && (p.Month < 1 || p.Month > 12) {
		verr.Add(core.FieldMonth, "Mês deve estar entre 1 e 12.")
	}
	if verr.HasErrors() {
		return PeriodParams{}, verr
	}
	return p, nil
}

func parseIntParam(query url.Values, key string, required bool, label string, verr *core.ValidationError) int {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		if required {
			verr.Add(key, label+" é obrigatório.")
		}
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(key, label+" deve ser um número.")
		return 0
	}
	return n
}

// ParseReportFilter reads the optional report filters.
func ParseReportFilter(query url.Values) (core.ReportFilter, *core.ValidationError) {
	period, verr := ParsePeriodParams(query, false)
	if verr != nil {
		return core.ReportFilter{}, verr
	}
	status, ok := core.ParsePaidStatus(query.Get(core.FieldStatus))
	if !ok {
		verr = core.NewValidationError()
		verr.Add(core.FieldStatus, "Situação deve ser pagas, nao-pagas ou todas.")
		return core.ReportFilter{}, verr
	}
	return core.ReportFilter{
		Year:   period.Year,
		Month:  period.Month,
		Status: status,
		Name:   sanitizeInput(query.Get(core.FieldName)),
	}, nil
}

var errEmptyBody = errors.New("empty request body")

// DecodeJSON reads a single JSON value from the body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("decode body: trailing data")
	}
	return nil
}

// decodeFailure maps a decode error that belongs to a single field to a
// field-keyed validation error. amountField names the decimal field of the
// body being decoded. Nil means the body itself is malformed.
func decodeFailure(err error, amountField string) *core.ValidationError {
	verr := core.NewValidationError()
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		verr.Add(core.FieldDueDate, "Data de vencimento inválida.")
	case errors.Is(err, core.ErrInvalidAmount):
		verr.Add(amountField, "Valor inválido.")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		verr.Add(typeErr.Field, "Tipo de valor inválido.")
	default:
		return nil
	}
	return verr
}

// writeDecodeError answers a failed body decode: 422 with field messages
// when one field is at fault, 400 otherwise.
func writeDecodeError(w http.ResponseWriter, err error, amountField string) {
	if verr := decodeFailure(err, amountField); verr != nil {
		ValidationFailed(verr).Write(w)
		return
	}
	BadRequestError("JSON inválido", nil).Write(w)
}

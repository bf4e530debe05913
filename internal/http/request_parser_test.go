package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"contas/internal/core"
)

func TestParsePeriodParams(t *testing.T) {
	tests := []struct {
		name       string
		query      url.Values
		required   bool
		want       PeriodParams
		wantFields []string
	}{
		{"both values", url.Values{"ano": {"2025"}, "mes": {"2"}}, true, PeriodParams{2025, 2}, nil},
		{"whitespace trimmed", url.Values{"ano": {" 2025 "}, "mes": {"12"}}, true, PeriodParams{2025, 12}, nil},
		{"missing required", url.Values{}, true, PeriodParams{}, []string{"ano", "mes"}},
		{"missing optional", url.Values{}, false, PeriodParams{}, nil},
		{"only year optional", url.Values{"ano": {"2024"}}, false, PeriodParams{2024, 0}, nil},
		{"not a number", url.Values{"ano": {"abc"}, "mes": {"1"}}, true, PeriodParams{}, []string{"ano"}},
		{"month out of range", url.Values{"ano": {"2025"}, "mes": {"0"}}, false, PeriodParams{2025, 0}, nil},
		{"month 13", url.Values{"ano": {"2025"}, "mes": {"13"}}, true, PeriodParams{}, []string{"mes"}},
		{"year too old", url.Values{"ano": {"1999"}, "mes": {"1"}}, true, PeriodParams{}, []string{"ano"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, verr := ParsePeriodParams(tt.query, tt.required)
			if len(tt.wantFields) == 0 {
				if verr != nil {
					t.Fatalf("unexpected error %v", verr)
				}
				if got != tt.want {
					t.Errorf("got %+v, want %+v", got, tt.want)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			for _, f := range tt.wantFields {
				if len(verr.Fields[f]) == 0 {
					t.Errorf("missing field %q in %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestParseReportFilter(t *testing.T) {
	f, verr := ParseReportFilter(url.Values{"ano": {"2025"}, "status": {"pagas"}, "nome": {"  Água\x00 "}})
	if verr != nil {
		t.Fatalf("unexpected error %v", verr)
	}
	if f.Year != 2025 || f.Month != 0 || f.Status != core.StatusPaid || f.Name != "Água" {
		t.Errorf("filter = %+v", f)
	}

	if _, verr := ParseReportFilter(url.Values{"status": {"talvez"}}); verr == nil || len(verr.Fields["status"]) == 0 {
		t.Errorf("expected status error, got %v", verr)
	}
	if f, verr := ParseReportFilter(url.Values{}); verr != nil || f.Status != core.StatusAll {
		t.Errorf("blank filter = %+v, %v", f, verr)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Nome string `json:"nome"`
	}
	decodeBody := func(body string) error {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return DecodeJSON(httptest.NewRecorder(), r, &dst)
	}

	if err := decodeBody(`{"nome":"Luz"}`); err != nil || dst.Nome != "Luz" {
		t.Errorf("decode = %v, %q", err, dst.Nome)
	}
	if err := decodeBody(``); !errors.Is(err, errEmptyBody) {
		t.Errorf("empty body error = %v", err)
	}
	if err := decodeBody(`{"nome":"a"} {"nome":"b"}`); err == nil {
		t.Error("trailing data should fail")
	}
	if err := decodeBody(`{"nome":` + strings.Repeat(" ", maxBodyBytes) + `"x"}`); err == nil {
		t.Error("oversized body should fail")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  conta\x07 de luz\t "); got != "conta de luz" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}

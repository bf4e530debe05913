package core

import (
	"sort"
	"strings"
)

// Wire names used as validation keys.
const (
	FieldName              = "nome"
	FieldYear              = "ano"
	FieldMonth             = "mes"
	FieldDueDate           = "dataVencimento"
	FieldInstallmentAmount = "valorParcela"
	FieldInstallmentCount  = "quantidadeParcelas"
	FieldTotalIncome       = "valorTotal"
	FieldSearchTerm        = "valor"
	FieldStatus            = "status"
)

// ValidationError maps a field name to the problems found with it.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message for field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e as an error when it holds at least one problem.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

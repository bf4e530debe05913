package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

type Conta struct {
	ID                 string
	Nome               string
	Ano                int64
	Mes                int64
	Paga               int64
	DataVencimento     string
	ValorParcela       string
	QuantidadeParcelas int64
}

type Receita struct {
	ID           string
	Ano          int64
	Mes          int64
	ValorTotal   string
	AtualizadoEm string
}

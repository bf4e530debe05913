package storage

import (
	"context"
)

const contaColumns = `id, nome, ano, mes, paga, data_vencimento, valor_parcela, quantidade_parcelas`

const createConta = `-- name: CreateConta :exec
INSERT INTO contas (` + contaColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateContaParams struct {
	ID                 string
	Nome               string
	Ano                int64
	Mes                int64
	Paga               int64
	DataVencimento     string
	ValorParcela       string
	QuantidadeParcelas int64
}

func (q *Queries) CreateConta(ctx context.Context, arg CreateContaParams) error {
	_, err := q.db.ExecContext(ctx, createConta,
		arg.ID,
		arg.Nome,
		arg.Ano,
		arg.Mes,
		arg.Paga,
		arg.DataVencimento,
		arg.ValorParcela,
		arg.QuantidadeParcelas,
	)
	return err
}

const getConta = `-- name: GetConta :one
SELECT ` + contaColumns + ` FROM contas WHERE id = ?
`

func (q *Queries) GetConta(ctx context.Context, id string) (Conta, error) {
	row := q.db.QueryRowContext(ctx, getConta, id)
	var i Conta
	err := scanConta(row, &i)
	return i, err
}

const listContas = `-- name: ListContas :many
SELECT ` + contaColumns + ` FROM contas ORDER BY data_vencimento, id
`

func (q *Queries) ListContas(ctx context.Context) ([]Conta, error) {
	return q.queryContas(ctx, listContas)
}

const listContasByPeriod = `-- name: ListContasByPeriod :many
SELECT ` + contaColumns + ` FROM contas WHERE ano = ? AND mes = ? ORDER BY data_vencimento, id
`

type ListContasByPeriodParams struct {
	Ano int64
	Mes int64
}

func (q *Queries) ListContasByPeriod(ctx context.Context, arg ListContasByPeriodParams) ([]Conta, error) {
	return q.queryContas(ctx, listContasByPeriod, arg.Ano, arg.Mes)
}

const listUnpaidDueBetween = `-- name: ListUnpaidDueBetween :many
SELECT ` + contaColumns + ` FROM contas
WHERE paga = 0 AND data_vencimento >= ? AND data_vencimento <= ?
ORDER BY data_vencimento, nome, id
`

type ListUnpaidDueBetweenParams struct {
	From string
	To   string
}

func (q *Queries) ListUnpaidDueBetween(ctx context.Context, arg ListUnpaidDueBetweenParams) ([]Conta, error) {
	return q.queryContas(ctx, listUnpaidDueBetween, arg.From, arg.To)
}

const setContaPaga = `-- name: SetContaPaga :execrows
UPDATE contas SET paga = ? WHERE id = ?
`

type SetContaPagaParams struct {
	Paga int64
	ID   string
}

func (q *Queries) SetContaPaga(ctx context.Context, arg SetContaPagaParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setContaPaga, arg.Paga, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteConta = `-- name: DeleteConta :execrows
DELETE FROM contas WHERE id = ?
`

func (q *Queries) DeleteConta(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteConta, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCohort = `-- name: DeleteCohort :execrows
DELETE FROM contas WHERE nome = ? AND data_vencimento >= ?
`

type DeleteCohortParams struct {
	Nome           string
	DataVencimento string
}

func (q *Queries) DeleteCohort(ctx context.Context, arg DeleteCohortParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCohort, arg.Nome, arg.DataVencimento)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getReceita = `-- name: GetReceita :one
SELECT id, ano, mes, valor_total, atualizado_em FROM receitas WHERE ano = ? AND mes = ?
`

type GetReceitaParams struct {
	Ano int64
	Mes int64
}

func (q *Queries) GetReceita(ctx context.Context, arg GetReceitaParams) (Receita, error) {
	row := q.db.QueryRowContext(ctx, getReceita, arg.Ano, arg.Mes)
	var i Receita
	err := row.Scan(&i.ID, &i.Ano, &i.Mes, &i.ValorTotal, &i.AtualizadoEm)
	return i, err
}

const upsertReceita = `-- name: UpsertReceita :one
INSERT INTO receitas (id, ano, mes, valor_total, atualizado_em)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (ano, mes) DO UPDATE SET
    valor_total = excluded.valor_total,
    atualizado_em = excluded.atualizado_em
RETURNING id, ano, mes, valor_total, atualizado_em
`

type UpsertReceitaParams struct {
	ID           string
	Ano          int64
	Mes          int64
	ValorTotal   string
	AtualizadoEm string
}

func (q *Queries) UpsertReceita(ctx context.Context, arg UpsertReceitaParams) (Receita, error) {
	row := q.db.QueryRowContext(ctx, upsertReceita,
		arg.ID,
		arg.Ano,
		arg.Mes,
		arg.ValorTotal,
		arg.AtualizadoEm,
	)
	var i Receita
	err := row.Scan(&i.ID, &i.Ano, &i.Mes, &i.ValorTotal, &i.AtualizadoEm)
	return i, err
}

func (q *Queries) queryContas(ctx context.Context, query string, args ...interface{}) ([]Conta, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Conta
	for rows.Next() {
		var i Conta
		if err := scanConta(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConta(row rowScanner, i *Conta) error {
	return row.Scan(
		&i.ID,
		&i.Nome,
		&i.Ano,
		&i.Mes,
		&i.Paga,
		&i.DataVencimento,
		&i.ValorParcela,
		&i.QuantidadeParcelas,
	)
}

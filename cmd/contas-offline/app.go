package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"contas/internal/api"
	"contas/internal/client"
	"contas/internal/core"
	"contas/internal/offline"
	"contas/internal/worker"
)

var errUsage = errors.New("usage")

type appConfig struct {
	BaseURL      string
	Store        offline.Store
	Checker      client.Checker
	SyncInterval time.Duration
	Out          io.Writer
	Now          func() time.Time
}

type app struct {
	api     *client.Client
	offline *client.OfflineClient
	queue   *offline.Queue
	syncer  *worker.OfflineSyncer
	out     io.Writer
	now     func() time.Time
}

func newApp(cfg appConfig) *app {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	apiClient := client.New(cfg.BaseURL, nil)
	queue := offline.NewQueue(cfg.Store)
	oc := client.NewOfflineClient(apiClient, cfg.Checker, queue, offline.NewPeriodCache(cfg.Store))
	return &app{
		api:     apiClient,
		offline: oc,
		queue:   queue,
		syncer: worker.NewOfflineSyncer(queue, oc.Sender(), cfg.Checker, worker.OfflineSyncerConfig{
			PollInterval: cfg.SyncInterval,
		}),
		out: cfg.Out,
		now: cfg.Now,
	}
}

const usage = `uso: contas-offline <comando> [opções]

comandos:
  list      -ano -mes                 contas do período
  search    -valor [-ano -mes]        busca por nome
  create    -nome -vencimento -valor [-parcelas]
  edit      -id -nome -vencimento -valor [-parcelas]
  pay       -id                       marca como paga
  unpay     -id                       desmarca
  delete    -id
  income    -ano -mes -valor [-propagar N]
  balance   -ano -mes
  report    -saida arquivo.pdf [-ano -mes -status -nome]
  pending                             ações aguardando sincronização
  sync                                replica a fila agora
  watch                               replica a fila sempre que a API voltar`

type command func(ctx context.Context, args []string) error

func (a *app) commands() map[string]command {
	return map[string]command{
		"list":    a.list,
		"search":  a.search,
		"create":  a.create,
		"edit":    a.edit,
		"pay":     a.setPaid(true),
		"unpay":   a.setPaid(false),
		"delete":  a.delete,
		"income":  a.income,
		"balance": a.balance,
		"report":  a.report,
		"pending": a.pending,
		"sync":    a.sync,
		"watch":   a.watch,
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return errUsage
	}
	cmd, ok := a.commands()[args[0]]
	if !ok {
		fmt.Fprintf(a.out, "comando desconhecido: %s\n\n%s\n", args[0], usage)
		return errUsage
	}
	return cmd(ctx, args[1:])
}

func (a *app) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// periodFlags registers -ano and -mes defaulting to the current month.
func (a *app) periodFlags(fs *flag.FlagSet) (*int, *int) {
	now := a.now()
	return fs.Int("ano", now.Year(), "ano"), fs.Int("mes", int(now.Month()), "mês (1-12)")
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.newFlags("list")
	year, month := a.periodFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	bills, err := a.offline.ListBills(ctx, *year, *month)
	if err != nil {
		return err
	}
	a.printBills(bills)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := a.newFlags("search")
	term := fs.String("valor", "", "termo de busca")
	year := fs.Int("ano", 0, "ano (opcional)")
	month := fs.Int("mes", 0, "mês (opcional)")
	if err := parse(fs, args); err != nil {
		return err
	}
	bills, err := a.offline.Search(ctx, *term, *year, *month)
	if errors.Is(err, core.ErrNotFound) {
		fmt.Fprintln(a.out, "Nenhuma conta encontrada.")
		return nil
	}
	if err != nil {
		return err
	}
	a.printBills(bills)
	return nil
}

// billFlags registers the fields of a bill form.
type billFlags struct {
	name, due, amount *string
	count             *int
}

func newBillFlags(fs *flag.FlagSet) billFlags {
	return billFlags{
		name:   fs.String("nome", "", "nome da conta"),
		due:    fs.String("vencimento", "", "data de vencimento (AAAA-MM-DD)"),
		amount: fs.String("valor", "", "valor da parcela"),
		count:  fs.Int("parcelas", 1, "quantidade de parcelas"),
	}
}

// input converts the flags, collecting every field problem.
func (f billFlags) input() (api.BillInput, error) {
	verr := core.NewValidationError()
	in := api.BillInput{Name: strings.TrimSpace(*f.name), InstallmentCount: *f.count}

	due, err := core.ParseDate(*f.due)
	if err != nil {
		verr.Add(core.FieldDueDate, "Data de vencimento inválida.")
	} else {
		in.DueDate = due
		in.Year, in.Month = due.Year(), due.Month()
	}
	amount, err := core.ParseAmount(*f.amount)
	if err != nil {
		verr.Add(core.FieldInstallmentAmount, "Valor da parcela inválido.")
	}
	in.InstallmentAmount = api.NewAmount(amount)
	return in, verr.OrNil()
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := a.newFlags("create")
	form := newBillFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	in, err := form.input()
	if err != nil {
		return err
	}
	bills, err := a.offline.CreateBill(ctx, in)
	if err != nil {
		return err
	}
	a.printBills(bills)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := a.newFlags("edit")
	id := fs.String("id", "", "id da parcela")
	form := newBillFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fmt.Fprintln(a.out, "-id é obrigatório")
		return errUsage
	}
	in, err := form.input()
	if err != nil {
		return err
	}
	bills, err := a.offline.EditBill(ctx, *id, in)
	if err != nil {
		return err
	}
	a.printBills(bills)
	return nil
}

func (a *app) idFlag(name string, args []string) (string, error) {
	fs := a.newFlags(name)
	id := fs.String("id", "", "id da parcela")
	if err := parse(fs, args); err != nil {
		return "", err
	}
	if *id == "" {
		fmt.Fprintln(a.out, "-id é obrigatório")
		return "", errUsage
	}
	return *id, nil
}

func (a *app) setPaid(paid bool) command {
	return func(ctx context.Context, args []string) error {
		id, err := a.idFlag("pay", args)
		if err != nil {
			return err
		}
		var bill api.Bill
		if paid {
			bill, err = a.offline.PayBill(ctx, id)
		} else {
			bill, err = a.offline.UnpayBill(ctx, id)
		}
		if err != nil {
			return err
		}
		a.printBills([]api.Bill{bill})
		return nil
	}
}

func (a *app) delete(ctx context.Context, args []string) error {
	id, err := a.idFlag("delete", args)
	if err != nil {
		return err
	}
	if err := a.offline.DeleteBill(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Conta excluída.")
	return nil
}

func (a *app) income(ctx context.Context, args []string) error {
	fs := a.newFlags("income")
	year, month := a.periodFlags(fs)
	value := fs.String("valor", "", "receita total do mês")
	months := fs.Int("propagar", 0, "repetir nos N meses seguintes")
	if err := parse(fs, args); err != nil {
		return err
	}
	total, err := core.ParseAmount(*value)
	if err != nil {
		verr := core.NewValidationError()
		verr.Add(core.FieldTotalIncome, "Receita inválida.")
		return verr
	}

	if *months > 0 {
		rec, err := a.offline.PropagateIncome(ctx, *year, *month, api.NewAmount(total), *months)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Receita de %s gravada em %d meses.\n", core.FormatBRL(total), *months+1-len(rec.Failures))
		for _, f := range rec.Failures {
			fmt.Fprintf(a.out, "  falha em %02d/%d: %s\n", f.Month, f.Year, f.Error)
		}
		return nil
	}
	rec, err := a.offline.PutIncome(ctx, api.IncomeInput{Year: *year, Month: *month, TotalIncome: api.NewAmount(total)})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Receita %02d/%d: %s\n", rec.Month, rec.Year, core.FormatBRL(rec.TotalIncome.Decimal))
	return nil
}

func (a *app) balance(ctx context.Context, args []string) error {
	fs := a.newFlags("balance")
	year, month := a.periodFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	b, err := a.api.Balance(ctx, *year, *month)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Receita\t%s\n", core.FormatBRL(b.Income.Decimal))
	fmt.Fprintf(tw, "Pago\t%s\n", core.FormatBRL(b.Paid.Decimal))
	fmt.Fprintf(tw, "Pendente\t%s\n", core.FormatBRL(b.Pending.Decimal))
	fmt.Fprintf(tw, "Saldo\t%s\n", core.FormatBRL(b.Remaining.Decimal))
	return tw.Flush()
}

func (a *app) report(ctx context.Context, args []string) error {
	fs := a.newFlags("report")
	out := fs.String("saida", "contas.pdf", "arquivo de saída")
	year := fs.Int("ano", 0, "ano (opcional)")
	month := fs.Int("mes", 0, "mês (opcional)")
	status := fs.String("status", "", "pagas, nao-pagas ou todas")
	name := fs.String("nome", "", "filtrar por nome")
	if err := parse(fs, args); err != nil {
		return err
	}
	pdf, err := a.api.Report(ctx, core.ReportFilter{
		Year:   *year,
		Month:  *month,
		Status: core.PaidStatus(*status),
		Name:   *name,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, pdf, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(a.out, "Relatório salvo em %s\n", *out)
	return nil
}

func (a *app) pending(ctx context.Context, _ []string) error {
	actions, err := a.queue.Pending(ctx)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		fmt.Fprintln(a.out, "Nenhuma ação pendente.")
		return nil
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(actions)
}

func (a *app) sync(ctx context.Context, _ []string) error {
	res, ran, err := a.syncer.SyncNow(ctx)
	if err != nil {
		return err
	}
	if !ran {
		fmt.Fprintln(a.out, "Nada a sincronizar ou API indisponível.")
		return nil
	}
	fmt.Fprintf(a.out, "Sincronizadas: %d, pendentes: %d\n", res.Acknowledged, res.Remaining)
	if res.Err != nil {
		return fmt.Errorf("sync stopped: %w", res.Err)
	}
	return nil
}

// watch runs the syncer until ctx is done.
func (a *app) watch(ctx context.Context, _ []string) error {
	a.queue.Subscribe(func(res offline.DrainResult) {
		fmt.Fprintf(a.out, "Sincronizadas: %d, pendentes: %d\n", res.Acknowledged, res.Remaining)
	})
	if err := a.syncer.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.syncer.Stop(stopCtx)
}

func (a *app) printBills(bills []api.Bill) {
	if len(bills) == 0 {
		fmt.Fprintln(a.out, "Nenhuma conta.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOME\tPARCELA\tVENCIMENTO\tVALOR\tPAGA")
	for _, b := range bills {
		paid := "não"
		if b.Paid {
			paid = "sim"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			b.ID, b.Name, b.Ordinal, b.GroupSize,
			b.DueDate.Format("02/01/2006"), core.FormatBRL(b.InstallmentAmount.Decimal), paid)
	}
	_ = tw.Flush()
}

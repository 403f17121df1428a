package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phu-boop/ev-dealer-platform/internal/allocation"
	"github.com/phu-boop/ev-dealer-platform/internal/allocation/listener"
	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/auth"
	invdto "github.com/phu-boop/ev-dealer-platform/internal/inventory/dto"
	journaldto "github.com/phu-boop/ev-dealer-platform/internal/journal/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
	orderdto "github.com/phu-boop/ev-dealer-platform/internal/order/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/shipment"
)

type command struct {
	usage string
	// anonymous commands run without a session
	anonymous bool
	run       func(ctx context.Context, a *app, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":          {usage: "login -email EMAIL [-password PASSWORD]", anonymous: true, run: cmdLogin},
		"logout":         {usage: "logout", anonymous: true, run: cmdLogout},
		"orders":         {usage: "orders [-status STATUS] [-dealer ID] [-from DATE] [-to DATE] [-page N] [-size N]", run: cmdOrders},
		"approve":        {usage: "approve ORDER_ID", run: orderAction(model.ActionApprove)},
		"cancel":         {usage: "cancel [-as staff|dealer] ORDER_ID", run: cmdCancel},
		"delete":         {usage: "delete ORDER_ID", run: orderAction(model.ActionDelete)},
		"deliver":        {usage: "deliver ORDER_ID", run: orderAction(model.ActionDeliver)},
		"ship":           {usage: "ship -order ID [-vins VARIANT=VIN1,VIN2 ...] [-file PATH]", run: cmdShip},
		"available-vins": {usage: "available-vins -variant ID", run: cmdAvailableVins},
		"validate-vins":  {usage: "validate-vins VIN... (or one per line on stdin)", run: cmdValidateVins},
		"restock":        {usage: "restock -variant ID -vins VIN1,VIN2 [-notes TEXT]", run: cmdRestock},
		"transfer":       {usage: "transfer -variant ID -dealer ID -qty N [-notes TEXT]", run: cmdTransfer},
		"adjust":         {usage: "adjust -variant ID -qty N -notes TEXT", run: cmdAdjust},
		"reorder-level":  {usage: "reorder-level -variant ID -level N [-dealer ID]", run: cmdReorderLevel},
		"stock":          {usage: "stock -variants ID1,ID2", run: cmdStock},
		"dealers":        {usage: "dealers", run: cmdDealers},
		"history":        {usage: "history [-order ID] [-action ACTION] [-outcome succeeded|failed] [-page N] [-size N]", run: cmdHistory},
		"payments":       {usage: "payments [approve ID | reject -reason TEXT ID]", run: cmdPayments},
		"watch":          {usage: "watch [-tab STATUS] [-size N]", run: cmdWatch},
	}
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.out, "unknown command %q\n\n", args[0])
		a.usage()
		return 2
	}

	if !cmd.anonymous {
		s, err := a.auth.Get(ctx)
		if err != nil {
			fmt.Fprintln(a.out, a.tr.Notice(err))
			return 1
		}
		ctx = auth.WithUser(ctx, s.User())
	}

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		if errors.Is(err, context.Canceled) {
			return 130
		}
		a.logger.Debug("command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintln(a.out, a.tr.Notice(err))
		return 1
	}
	return 0
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(a.out, "usage: evmctl COMMAND [flags]")
	fmt.Fprintln(a.out)
	for _, name := range names {
		fmt.Fprintf(a.out, "  %s\n", commands[name].usage)
	}
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.Usage = func() {
		fmt.Fprintf(a.out, "usage: evmctl %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

func oneArg(fs *flag.FlagSet, what string) (string, error) {
	if fs.NArg() != 1 {
		return "", apperr.Validation("expected exactly one %s", what)
	}
	return fs.Arg(0), nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password; read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	s, err := a.authAPI.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := a.auth.Start(ctx, s); err != nil {
		return err
	}
	a.logger.Info("signed in", zap.String("user_id", s.UserID), zap.String("role", s.Role))
	fmt.Fprintln(a.out, a.tr.T("signed_in", map[string]any{"UserID": s.UserID}))
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.auth.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.tr.T("signed_out", nil))
	return nil
}

func cmdOrders(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "orders")
	status := fs.String("status", "", "PENDING, CONFIRMED, IN_TRANSIT, DELIVERED or CANCELLED; empty lists all")
	dealerID := fs.String("dealer", "", "dealer id")
	from := fs.String("from", "", "start date, YYYY-MM-DD")
	to := fs.String("to", "", "end date, YYYY-MM-DD")
	page := fs.Int("page", 0, "zero-based page")
	size := fs.Int("size", orderdto.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := &orderdto.OrderFilters{DealerID: *dealerID, Page: *page, Size: *size}
	if *status != "" {
		s, err := model.ParseOrderStatus(*status)
		if err != nil {
			return apperr.Validation("%v", err)
		}
		f.Status = s
	}
	var err error
	if f.StartDate, err = parseDate(*from); err != nil {
		return err
	}
	if f.EndDate, err = parseDate(*to); err != nil {
		return err
	}
	if d := auth.GetDealerID(ctx); d != "" {
		f.DealerID = d
	}

	result, err := a.orders.ListOrders(ctx, f)
	if err != nil {
		return err
	}
	lookup, err := a.dealers.Lookup(ctx)
	if err != nil {
		a.logger.Warn("dealer lookup failed, showing dealer ids", zap.Error(err))
	}
	rows := make([]allocation.Row, 0, len(result.Content))
	for _, o := range result.Content {
		name := o.DealerID
		if d, ok := lookup[o.DealerID]; ok && d.DealerName != "" {
			name = d.DealerName
		}
		rows = append(rows, allocation.Row{Order: o, DealerName: name, Actions: model.AllowedActions(o.OrderStatus, auth.ActorFrom(ctx))})
	}
	renderView(a.out, &allocation.View{
		Tab:           f.Status,
		Page:          result.Number,
		TotalPages:    result.TotalPages,
		TotalElements: result.TotalElements,
		Rows:          rows,
	})
	return nil
}

var actionNotices = map[model.OrderAction]string{
	model.ActionApprove: "order_approved",
	model.ActionCancel:  "order_cancelled",
	model.ActionDelete:  "order_deleted",
	model.ActionDeliver: "order_delivered",
}

func orderAction(action model.OrderAction) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		fs := newFlagSet(a, string(action))
		if err := fs.Parse(args); err != nil {
			return err
		}
		orderID, err := oneArg(fs, "order id")
		if err != nil {
			return err
		}
		return runOrderAction(ctx, a, a.dashboard(ctx, 0), action, orderID)
	}
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "cancel")
	as := fs.String("as", "", "cancel as staff or dealer; defaults to the signed-in role")
	if err := fs.Parse(args); err != nil {
		return err
	}
	orderID, err := oneArg(fs, "order id")
	if err != nil {
		return err
	}
	if *as != "" {
		actor, err := model.ParseActor(*as)
		if err != nil {
			return apperr.Validation("%v", err)
		}
		u, _ := auth.UserFrom(ctx)
		u.Role = string(actor)
		ctx = auth.WithUser(ctx, u)
	}
	return runOrderAction(ctx, a, a.dashboard(ctx, 0), model.ActionCancel, orderID)
}

func runOrderAction(ctx context.Context, a *app, d *allocation.Dashboard, action model.OrderAction, orderID string) error {
	fmt.Fprintln(a.out, a.tr.T("processing", nil))
	var (
		view *allocation.View
		err  error
	)
	switch action {
	case model.ActionApprove:
		view, err = d.Approve(ctx, orderID)
	case model.ActionCancel:
		view, err = d.Cancel(ctx, orderID)
	case model.ActionDelete:
		view, err = d.Delete(ctx, orderID)
	case model.ActionDeliver:
		view, err = d.Deliver(ctx, orderID)
	default:
		return apperr.Validation("unsupported action %q", action)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.tr.T(actionNotices[action], map[string]any{"OrderID": orderID}))
	renderView(a.out, view)
	return nil
}

type vinSpecs []string

func (v *vinSpecs) String() string     { return strings.Join(*v, " ") }
func (v *vinSpecs) Set(s string) error { *v = append(*v, s); return nil }

func cmdShip(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "ship")
	orderID := fs.String("order", "", "order id")
	file := fs.String("file", "", `file with one "VARIANT VIN" pair per line`)
	var specs vinSpecs
	fs.Var(&specs, "vins", "VARIANT=VIN1,VIN2; repeat per variant")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *orderID == "" {
		return apperr.Validation("-order is required")
	}

	byVariant := map[string][]string{}
	for _, s := range specs {
		variant, vins, err := parseVinSpec(s)
		if err != nil {
			return err
		}
		byVariant[variant] = append(byVariant[variant], vins...)
	}
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return apperr.Validation("open %s: %v", *file, err)
		}
		fromFile, err := readVinFile(f)
		f.Close()
		if err != nil {
			return err
		}
		for variant, vins := range fromFile {
			byVariant[variant] = append(byVariant[variant], vins...)
		}
	}

	d := a.dashboard(ctx, 0)
	w, err := d.OpenShipment(ctx, *orderID)
	if err != nil {
		return err
	}
	defer w.Close()

	items := w.Items()
	for itemID, vins := range assignVins(items, byVariant) {
		if err := w.SetText(itemID, strings.Join(vins, "\n")); err != nil {
			return err
		}
	}
	for _, it := range items {
		if err := w.Blur(ctx, it.ItemID); err != nil {
			a.logger.Warn("VIN validation failed", zap.String("variant_id", it.VariantID), zap.Error(err))
		}
	}

	names := a.variantNames(ctx, items)
	renderShipment(a.out, w.Items(), names)
	if !w.CanSubmit() {
		// report the blocking reason through Submit's own checks
		return w.Submit(ctx)
	}

	fmt.Fprintln(a.out, a.tr.T("processing", nil))
	if err := w.Submit(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.tr.T("order_shipped", map[string]any{"OrderID": *orderID}))
	return nil
}

func (a *app) variantNames(ctx context.Context, items []shipment.Item) map[string]string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.VariantID)
	}
	names := map[string]string{}
	variants, err := a.catalog.ResolveVariants(ctx, ids)
	if err != nil {
		a.logger.Warn("catalog lookup failed, showing variant ids", zap.Error(err))
	}
	for _, id := range ids {
		v, ok := variants[id]
		if !ok {
			v = model.VariantDetail{VariantID: id}
		}
		names[id] = v.DisplayName()
	}
	return names
}

func cmdAvailableVins(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "available-vins")
	variant := fs.String("variant", "", "variant id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	vins, err := a.inv.GetAvailableVins(ctx, *variant)
	if err != nil {
		return err
	}
	for _, v := range vins {
		fmt.Fprintln(a.out, v)
	}
	return nil
}

func cmdValidateVins(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "validate-vins")
	if err := fs.Parse(args); err != nil {
		return err
	}
	vins := fs.Args()
	if len(vins) == 0 {
		b, err := io.ReadAll(a.in)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		vins = shipment.SplitVins(string(b))
	}
	res, err := a.inv.ValidateVins(ctx, vins)
	if err != nil {
		return err
	}
	if !res.HasInvalid() {
		fmt.Fprintln(a.out, a.tr.T("vins_valid", nil))
		return nil
	}
	renderInvalidVins(a.out, res)
	return apperr.Validation("%d of %d VINs were rejected", len(res.Rejected()), len(vins))
}

func cmdRestock(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "restock")
	variant := fs.String("variant", "", "variant id")
	vins := fs.String("vins", "", "comma separated VINs")
	notes := fs.String("notes", "", "notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, _ := auth.UserFrom(ctx)
	tx, err := a.inv.ExecuteTransaction(ctx, &invdto.TransactionInput{
		Type:      model.TransactionRestock,
		VariantID: *variant,
		Vins:      strings.Split(*vins, ","),
		Notes:     *notes,
		StaffID:   u.UserID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.tr.T("restock_done", map[string]any{"Quantity": tx.Quantity, "VariantID": *variant}))
	return nil
}

func cmdTransfer(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "transfer")
	variant := fs.String("variant", "", "variant id")
	dealerID := fs.String("dealer", "", "target dealer id")
	qty := fs.Int("qty", 0, "quantity")
	notes := fs.String("notes", "", "notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, _ := auth.UserFrom(ctx)
	tx, err := a.inv.ExecuteTransaction(ctx, &invdto.TransactionInput{
		Type:       model.TransactionTransferToDealer,
		VariantID:  *variant,
		ToDealerID: *dealerID,
		Quantity:   *qty,
		Notes:      *notes,
		StaffID:    u.UserID,
	})
	if err != nil {
		return err
	}
	renderTransaction(a.out, tx)
	return nil
}

func cmdAdjust(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "adjust")
	variant := fs.String("variant", "", "variant id")
	qty := fs.Int("qty", 0, "signed quantity change")
	notes := fs.String("notes", "", "reason for the adjustment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, _ := auth.UserFrom(ctx)
	tx, err := a.inv.ExecuteTransaction(ctx, &invdto.TransactionInput{
		Type:      model.TransactionAdjustment,
		VariantID: *variant,
		Quantity:  *qty,
		Notes:     *notes,
		StaffID:   u.UserID,
	})
	if err != nil {
		return err
	}
	renderTransaction(a.out, tx)
	return nil
}

func cmdReorderLevel(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "reorder-level")
	variant := fs.String("variant", "", "variant id")
	level := fs.Int("level", -1, "reorder threshold, zero or more")
	dealerID := fs.String("dealer", "", "dealer id; empty sets the central warehouse level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	input := &invdto.ReorderLevelInput{Scope: invdto.ScopeCentral, VariantID: *variant, ReorderLevel: *level}
	if *dealerID != "" {
		input.Scope = invdto.ScopeDealer
		input.DealerID = *dealerID
	}
	if _, err := a.inv.UpdateReorderLevel(ctx, input); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.tr.T("reorder_level_updated", map[string]any{"VariantID": *variant, "Level": *level}))
	return nil
}

func cmdStock(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "stock")
	variants := fs.String("variants", "", "comma separated variant ids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids := splitList(*variants)
	if len(ids) == 0 {
		return apperr.Validation("-variants is required")
	}
	rows, err := a.inv.GetStock(ctx, ids)
	if err != nil {
		return err
	}
	renderStock(a.out, rows)
	return nil
}

func cmdDealers(ctx context.Context, a *app, _ []string) error {
	dealers, err := a.dealers.List(ctx)
	if err != nil {
		return err
	}
	renderDealers(a.out, dealers)
	return nil
}

func cmdHistory(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "history")
	orderID := fs.String("order", "", "order id")
	action := fs.String("action", "", "approve, cancel, ship, deliver or delete")
	outcome := fs.String("outcome", "", "succeeded or failed")
	page := fs.Int("page", 1, "page, starting at 1")
	size := fs.Int("size", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	records, total, err := a.journal.List(ctx, &journaldto.Filters{
		OrderID:  *orderID,
		Action:   model.OrderAction(strings.ToLower(*action)),
		Outcome:  model.ActionOutcome(strings.ToLower(*outcome)),
		Page:     *page,
		PageSize: *size,
	})
	if err != nil {
		return err
	}
	renderHistory(a.out, records, total)
	return nil
}

func cmdPayments(ctx context.Context, a *app, args []string) error {
	if _, err := a.payments.Reload(ctx); err != nil {
		return err
	}
	if len(args) == 0 {
		renderPayments(a.out, a.payments.Pending())
		return nil
	}

	switch args[0] {
	case "approve":
		fs := newFlagSet(a, "payments")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		id, err := oneArg(fs, "payment id")
		if err != nil {
			return err
		}
		if err := a.payments.Approve(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, a.tr.T("payment_approved", map[string]any{"PaymentID": id}))
	case "reject":
		fs := newFlagSet(a, "payments")
		reason := fs.String("reason", "", "why the payment is rejected")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		id, err := oneArg(fs, "payment id")
		if err != nil {
			return err
		}
		if err := a.payments.Reject(ctx, id, *reason); err != nil {
			return err
		}
		fmt.Fprintln(a.out, a.tr.T("payment_rejected", map[string]any{"PaymentID": id}))
	default:
		return apperr.Validation("unknown payments subcommand %q", args[0])
	}
	renderPayments(a.out, a.payments.Pending())
	return nil
}

func cmdWatch(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "watch")
	tab := fs.String("tab", "all", "ALL, PENDING, CONFIRMED, IN_TRANSIT, DELIVERED or CANCELLED")
	size := fs.Int("size", orderdto.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	status, err := allocation.ParseTab(*tab)
	if err != nil {
		return err
	}
	if len(a.cfg.Kafka.Brokers) == 0 {
		return apperr.Validation("KAFKA_BROKERS is not set")
	}

	d := a.dashboard(ctx, *size)
	if err := d.SwitchTab(status); err != nil {
		return err
	}

	reader := listener.NewKafkaReader(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, a.cfg.Kafka.GroupID)
	defer reader.Close()
	l := listener.NewOrderListener(reader, d, auth.GetDealerID(ctx), a.logger)
	go l.Start(ctx)

	d.RequestRefresh()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.Refreshes():
			view, err := d.Load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintln(a.out, a.tr.Notice(err))
				continue
			}
			fmt.Fprintf(a.out, "\n%s\n", time.Now().Format("15:04:05"))
			renderView(a.out, view)
		}
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"comanda/apierr"
	"comanda/cart"
	"comanda/catalog"
	"comanda/client"
	"comanda/config"
	"comanda/forecast"
	"comanda/models"
	"comanda/orders"
	"comanda/session"
	"comanda/statemachine"
	"comanda/stubserver"
	"comanda/tables"
)

const usage = `comanda - restaurant management client

Usage:
  comanda login --name NAME [--role admin|client] [--table ID]
  comanda logout
  comanda menu [--search TERM]
  comanda cart add|remove|set|show|clear [PRODUCT_ID] [N]
  comanda tables list|reserve|seat|release|cancel|occupy [TABLE_ID] [--name NAME]
  comanda order submit [--notes TEXT] | list [--mine] | status ID STATUS | cancel ID
  comanda product create --name NAME --price P [--quantity N] [--category C] [--min-stock N]
  comanda product set ID [--name NAME] [--price P] [--quantity N] [--available true|false] [--min-stock N]
  comanda product delete ID
  comanda forecast [--date YYYY-MM-DD] [--retrain]
  comanda stub [--addr :4000]
`

type app struct {
	cfg     *config.Config
	sess    *session.Session
	api     *client.Client
	catalog *catalog.Store
	draft   *cart.Builder
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	sess, err := session.Open(cfg.SessionDBPath)
	if err != nil {
		fatal(err)
	}
	api := client.New(cfg.APIBaseURL, cfg.RequestTimeout, sess)
	cat := catalog.NewStore(api)
	a := &app{cfg: cfg, sess: sess, api: api, catalog: cat, draft: cart.NewBuilder(cat)}

	ctx := context.Background()
	args := os.Args[2:]

	switch os.Args[1] {
	case "login":
		err = a.login(ctx, args)
	case "logout":
		err = a.sess.Clear()
		if err == nil {
			fmt.Println("logged out")
		}
	case "menu":
		err = a.menu(ctx, args)
	case "cart":
		err = a.cart(ctx, args)
	case "tables":
		err = a.tables(ctx, args)
	case "order":
		err = a.order(ctx, args)
	case "product":
		err = a.product(ctx, args)
	case "forecast":
		err = a.forecast(ctx, args)
	case "stub":
		err = runStub(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	if errors.Is(err, apierr.ErrSessionExpired) {
		fmt.Fprintln(os.Stderr, "run `comanda login` to start a new session")
	}
	os.Exit(1)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	name := fs.String("name", "", "customer or staff name")
	role := fs.String("role", "client", "admin or client")
	tableID := fs.Uint("table", 0, "linked table id (clients only)")
	fs.Parse(args)

	if *name == "" {
		return &apierr.ValidationError{Field: "name", Reason: "is required"}
	}
	token, err := a.api.Login(ctx, *name, *role)
	if err != nil {
		return err
	}
	if err := a.sess.SaveToken(token); err != nil {
		return err
	}
	id := session.Identity{Role: session.Role(*role), Name: *name}
	if *tableID != 0 {
		t := uint(*tableID)
		id.TableID = &t
	}
	if err := a.sess.SaveIdentity(id); err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", *name, *role)
	return nil
}

func (a *app) refreshCatalogAndDraft(ctx context.Context) error {
	if err := a.catalog.Refresh(ctx); err != nil {
		return err
	}
	if raw, ok, err := a.sess.LoadCart(); err == nil && ok {
		if err := a.draft.Restore(raw); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) persistDraft() error {
	raw, err := a.draft.Snapshot()
	if err != nil {
		return err
	}
	return a.sess.SaveCart(raw)
}

func (a *app) menu(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("menu", flag.ExitOnError)
	search := fs.String("search", "", "filter by name")
	fs.Parse(args)

	if err := a.refreshCatalogAndDraft(ctx); err != nil {
		return err
	}
	var products []models.Product
	if *search != "" {
		products = a.catalog.Search(*search)
	} else {
		products = a.catalog.Products()
	}
	for _, p := range products {
		marker := " "
		if !p.Orderable() {
			marker = "x"
		}
		fmt.Printf("%s %3d  %-24s R$ %7.2f  stock %3d  %s\n", marker, p.ID, p.Name, p.Price, p.Quantity, p.Category.Name)
	}
	return nil
}

func (a *app) cart(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: comanda cart add|remove|set|show|clear [PRODUCT_ID] [N]")
	}
	if err := a.refreshCatalogAndDraft(ctx); err != nil {
		return err
	}
	sub := args[0]
	argID := func(i int) (uint, error) {
		if len(args) <= i {
			return 0, errors.New("product id required")
		}
		id, err := strconv.ParseUint(args[i], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid product id %q", args[i])
		}
		return uint(id), nil
	}
	switch sub {
	case "add":
		id, err := argID(1)
		if err != nil {
			return err
		}
		if err := a.draft.AddItem(id); err != nil {
			return err
		}
	case "remove":
		id, err := argID(1)
		if err != nil {
			return err
		}
		a.draft.RemoveOrDecrement(id)
	case "set":
		id, err := argID(1)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New("quantity required")
		}
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		if err := a.draft.SetQuantity(id, n); err != nil {
			return err
		}
	case "clear":
		a.draft.Clear()
	case "show":
	default:
		return fmt.Errorf("unknown cart command %q", sub)
	}
	if err := a.persistDraft(); err != nil {
		return err
	}
	for _, line := range a.draft.Lines() {
		fmt.Printf("%3d x %-24s R$ %7.2f\n", line.Quantity, line.Name, line.UnitPrice*float64(line.Quantity))
	}
	fmt.Printf("total: R$ %.2f\n", a.draft.Total())
	return nil
}

func (a *app) tables(ctx context.Context, args []string) error {
	registry := tables.NewRegistry(a.api, a.sess)
	if err := registry.Refresh(ctx); err != nil {
		return err
	}
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	if sub == "list" {
		if registry.Stale() {
			fmt.Println("(offline: showing last known layout)")
		}
		for _, t := range registry.Tables() {
			if t.Kind != models.KindTable {
				continue
			}
			extra := ""
			if t.ReservedBy != "" {
				extra = " (" + t.ReservedBy + ")"
			}
			fmt.Printf("%3d  %-10s %d seats  %s%s\n", t.ID, t.Label, t.Seats, t.Status, extra)
		}
		available, busy, reserved := registry.Counts()
		fmt.Printf("available %d / busy %d / reserved %d\n", available, busy, reserved)
		return nil
	}

	if len(args) < 2 {
		return errors.New("table id required")
	}
	id64, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid table id %q", args[1])
	}
	id := uint(id64)

	var updated models.Table
	switch sub {
	case "reserve":
		fs := flag.NewFlagSet("reserve", flag.ExitOnError)
		name := fs.String("name", "", "customer name")
		fs.Parse(args[2:])
		reservedBy := *name
		if reservedBy == "" {
			if identity, ok, _ := a.sess.Identity(); ok {
				reservedBy = identity.Name
			}
		}
		updated, err = registry.Reserve(ctx, id, reservedBy)
	case "seat":
		updated, err = registry.Seat(ctx, id)
	case "release":
		updated, err = registry.Release(ctx, id)
	case "cancel":
		updated, err = registry.CancelReservation(ctx, id)
	case "occupy":
		updated, err = registry.Occupy(ctx, id)
	default:
		return fmt.Errorf("unknown tables command %q", sub)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", updated.Label, updated.Status)
	return nil
}

func (a *app) order(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: comanda order submit|list|status|cancel")
	}
	tracker := orders.NewTracker(a.api)

	switch args[0] {
	case "submit":
		fs := flag.NewFlagSet("submit", flag.ExitOnError)
		notes := fs.String("notes", "", "free-text notes")
		fs.Parse(args[1:])

		if err := a.refreshCatalogAndDraft(ctx); err != nil {
			return err
		}
		identity, ok, err := a.sess.Identity()
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("log in before submitting an order")
		}
		service := orders.NewService(a.api, a.draft)
		created, err := service.Submit(ctx, orders.SubmitRequest{
			CustomerName: identity.Name,
			TableID:      identity.TableID,
			Notes:        *notes,
		})
		if err != nil {
			return err
		}
		if err := a.sess.ClearCart(); err != nil {
			return err
		}
		fmt.Printf("order #%d created, total R$ %.2f\n", created.ID, created.Total())
		fmt.Println("track it with `comanda order list --mine`")
		return nil

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		mine := fs.Bool("mine", false, "only my orders")
		fs.Parse(args[1:])

		if err := tracker.Refresh(ctx); err != nil {
			return err
		}
		list := tracker.Orders()
		if *mine {
			identity, ok, err := a.sess.Identity()
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("log in first")
			}
			list = tracker.OrdersFor(identity.Name)
			defer fmt.Printf("tab total (excluding cancelled): R$ %.2f\n", tracker.TabTotal(identity.Name))
		}
		for _, o := range list {
			fmt.Printf("#%-4d %-12s %-10s R$ %7.2f  %s\n", o.ID, o.CustomerName, o.Status, o.Total(), o.CreatedAt.Format(time.DateTime))
		}
		return nil

	case "status":
		if len(args) < 3 {
			return errors.New("usage: comanda order status ID STATUS")
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[1])
		}
		if err := tracker.Refresh(ctx); err != nil {
			return err
		}
		updated, err := tracker.Transition(ctx, uint(id), models.OrderStatus(args[2]), statemachine.ActorStaff)
		if err != nil {
			return err
		}
		fmt.Printf("order #%d is now %s\n", updated.ID, updated.Status)
		return nil

	case "cancel":
		if len(args) < 2 {
			return errors.New("usage: comanda order cancel ID")
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[1])
		}
		if err := tracker.Refresh(ctx); err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("cancel order #%d? this cannot be undone", id)) {
			fmt.Println("aborted")
			return nil
		}
		updated, err := tracker.Cancel(ctx, uint(id))
		if err != nil {
			return err
		}
		fmt.Printf("order #%d cancelled\n", updated.ID)
		return nil
	}
	return fmt.Errorf("unknown order command %q", args[0])
}

func (a *app) product(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: comanda product create|set|delete ...")
	}
	switch args[0] {
	case "create":
		product, err := parseProductCreate(args[1:])
		if err != nil {
			return err
		}
		created, err := a.api.CreateProduct(ctx, product)
		if err != nil {
			return err
		}
		fmt.Printf("product #%d %q created\n", created.ID, created.Name)
		return nil

	case "set":
		id, patch, err := parseProductSet(args[1:])
		if err != nil {
			return err
		}
		updated, err := a.api.UpdateProduct(ctx, id, patch)
		if err != nil {
			return err
		}
		fmt.Printf("product #%d updated: R$ %.2f, stock %d\n", updated.ID, updated.Price, updated.Quantity)
		return nil

	case "delete":
		if len(args) < 2 {
			return errors.New("usage: comanda product delete ID")
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[1])
		}
		if !confirm(fmt.Sprintf("delete product #%d?", id)) {
			fmt.Println("aborted")
			return nil
		}
		if err := a.api.DeleteProduct(ctx, uint(id)); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	}
	return fmt.Errorf("unknown product command %q", args[0])
}

func parseProductCreate(args []string) (models.Product, error) {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	name := fs.String("name", "", "product name")
	price := fs.Float64("price", 0, "unit price")
	quantity := fs.Int("quantity", 0, "initial stock")
	category := fs.String("category", "", "category name")
	minStock := fs.Int("min-stock", 10, "low stock threshold")
	if err := fs.Parse(args); err != nil {
		return models.Product{}, err
	}
	if *name == "" {
		return models.Product{}, &apierr.ValidationError{Field: "name", Reason: "is required"}
	}
	if *price <= 0 {
		return models.Product{}, &apierr.ValidationError{Field: "price", Reason: "must be positive"}
	}
	return models.Product{
		Name:        *name,
		Price:       *price,
		Quantity:    *quantity,
		MinStock:    *minStock,
		IsAvailable: true,
		Category:    models.Category{Name: *category},
	}, nil
}

// parseProductSet builds a patch carrying only the flags that were actually
// given, so an untouched field is never overwritten with a zero value.
func parseProductSet(args []string) (uint, models.ProductPatch, error) {
	if len(args) < 1 {
		return 0, models.ProductPatch{}, errors.New("product id required")
	}
	id64, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, models.ProductPatch{}, fmt.Errorf("invalid product id %q", args[0])
	}

	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	name := fs.String("name", "", "product name")
	price := fs.Float64("price", 0, "unit price")
	quantity := fs.Int("quantity", 0, "stock")
	available := fs.String("available", "", "true or false")
	minStock := fs.Int("min-stock", 0, "low stock threshold")
	if err := fs.Parse(args[1:]); err != nil {
		return 0, models.ProductPatch{}, err
	}

	var patch models.ProductPatch
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = name
		case "price":
			patch.Price = price
		case "quantity":
			patch.Quantity = quantity
		case "available":
			v, err := strconv.ParseBool(*available)
			if err != nil {
				parseErr = &apierr.ValidationError{Field: "available", Reason: "must be true or false"}
				return
			}
			patch.IsAvailable = &v
		case "min-stock":
			patch.MinStock = minStock
		}
	})
	if parseErr != nil {
		return 0, models.ProductPatch{}, parseErr
	}
	if patch == (models.ProductPatch{}) {
		return 0, models.ProductPatch{}, errors.New("nothing to update, pass at least one flag")
	}
	return uint(id64), patch, nil
}

func (a *app) forecast(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	date := fs.String("date", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "target date")
	retrain := fs.Bool("retrain", false, "retrain the model first")
	fs.Parse(args)

	ml := forecast.NewClient(a.cfg.MLBaseURL, a.cfg.RequestTimeout)
	if *retrain {
		if err := ml.Retrain(ctx); err != nil {
			return err
		}
		fmt.Println("model retrained")
	}
	if err := a.catalog.Refresh(ctx); err != nil {
		return err
	}
	results, err := ml.PredictAll(ctx, *date, a.catalog.Products())
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%-24s stock %3d  est. sales %5.1f  projected %6.1f  [%s]\n",
			r.Product.Name, r.Product.Quantity, r.Prediction.EstimatedSales, r.Prediction.ProjectedStockEndOfDay, r.Health)
	}
	return nil
}

func runStub(args []string) error {
	fs := flag.NewFlagSet("stub", flag.ExitOnError)
	addr := fs.String("addr", ":4000", "listen address")
	fs.Parse(args)

	srv, err := stubserver.NewInMemory([]byte("comanda-stub-secret"))
	if err != nil {
		return err
	}
	products, tableSeed := stubserver.DefaultSeed()
	if err := srv.Seed(products, tableSeed); err != nil {
		return err
	}
	fmt.Printf("stub backend listening on %s\n", *addr)
	return srv.Run(*addr)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

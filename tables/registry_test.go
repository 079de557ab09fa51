package tables

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"comanda/apierr"
	"comanda/client"
	"comanda/models"
	"comanda/session"
	"comanda/stubserver"
)

func newStub(t *testing.T) *httptest.Server {
	t.Helper()
	stub, err := stubserver.NewInMemory([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	products, tableSeed := stubserver.DefaultSeed()
	if err := stub.Seed(products, tableSeed); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(stub.Router())
	t.Cleanup(srv.Close)
	return srv
}

func newRegistry(t *testing.T, baseURL string) (*Registry, *session.Session) {
	t.Helper()
	sess, err := session.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	api := client.New(baseURL, time.Second, nil)
	return NewRegistry(api, sess), sess
}

func TestReservationLifecycle(t *testing.T) {
	srv := newStub(t)
	registry, _ := newRegistry(t, srv.URL)
	ctx := context.Background()

	if err := registry.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	reserved, err := registry.Reserve(ctx, 1, "Ana")
	if err != nil {
		t.Fatal(err)
	}
	if reserved.Status != models.TableReserved || reserved.ReservedBy != "Ana" {
		t.Fatalf("after reserve: %+v", reserved)
	}

	seated, err := registry.Seat(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if seated.Status != models.TableBusy {
		t.Fatalf("after seat: status = %s, want busy", seated.Status)
	}
	if seated.ReservedBy != "Ana" {
		t.Fatalf("seat must keep the reservation name, got %q", seated.ReservedBy)
	}

	released, err := registry.Release(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if released.Status != models.TableAvailable || released.ReservedBy != "" {
		t.Fatalf("after release: %+v", released)
	}
}

func TestOccupancyExclusivityAndInvalidTransition(t *testing.T) {
	srv := newStub(t)
	registry, _ := newRegistry(t, srv.URL)
	ctx := context.Background()

	if err := registry.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	for _, table := range registry.Tables() {
		switch table.Status {
		case models.TableAvailable, models.TableBusy, models.TableReserved:
		default:
			t.Fatalf("table %d has status %q outside the three valid states", table.ID, table.Status)
		}
	}

	// table 3 is seeded busy: reserving it must fail locally
	_, err := registry.Reserve(ctx, 3, "Ana")
	var invalid *apierr.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("reserve busy table: err = %v, want InvalidTransitionError", err)
	}

	_, err = registry.Reserve(ctx, 1, "")
	var validation *apierr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("reserve without name: err = %v, want ValidationError", err)
	}
}

func TestOptimisticUpdateRollsBackOnServerFailure(t *testing.T) {
	srv := newStub(t)
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"backend exploded"}`))
			return
		}
		resp, err := http.Get(srv.URL + r.URL.Path)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
		io.Copy(w, resp.Body)
	}))
	defer failing.Close()

	registry, _ := newRegistry(t, failing.URL)
	ctx := context.Background()
	if err := registry.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	_, err := registry.Reserve(ctx, 1, "Ana")
	var serverErr *apierr.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("err = %v, want ServerError", err)
	}

	// the optimistic local change must have been reverted
	table, ok := registry.Find(1)
	if !ok {
		t.Fatal("table 1 missing")
	}
	if table.Status != models.TableAvailable || table.ReservedBy != "" {
		t.Fatalf("local state not reverted: %+v", table)
	}
}

func TestConcurrentWriteIsDetectedAsConflict(t *testing.T) {
	srv := newStub(t)
	registry, _ := newRegistry(t, srv.URL)
	ctx := context.Background()
	if err := registry.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	// another device writes in between: version moves past what we cached
	other := client.New(srv.URL, time.Second, nil)
	busy := models.TableBusy
	if _, err := other.UpdateTable(ctx, 1, models.TablePatch{Status: &busy, Version: 1}); err != nil {
		t.Fatal(err)
	}

	_, err := registry.Reserve(ctx, 1, "Ana")
	var conflict *apierr.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	table, _ := registry.Find(1)
	if table.Status != models.TableAvailable {
		t.Fatalf("local state must revert to last refresh, got %s", table.Status)
	}
}

func TestRefreshFallsBackToCachedLayout(t *testing.T) {
	srv := newStub(t)
	registry, sess := newRegistry(t, srv.URL)
	ctx := context.Background()
	if err := registry.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	srv.Close()

	// fresh registry, same session store, backend gone
	api := client.New(srv.URL, 200*time.Millisecond, nil)
	offline := NewRegistry(api, sess)
	if err := offline.Refresh(ctx); err != nil {
		t.Fatalf("refresh should fall back to cache, got %v", err)
	}
	if !offline.Stale() {
		t.Fatal("fallback view must be marked stale")
	}
	if len(offline.Tables()) == 0 {
		t.Fatal("cached layout must be served")
	}
}

func TestLockedElementRejectsLayoutEditsButNotOccupancy(t *testing.T) {
	srv := newStub(t)
	registry, _ := newRegistry(t, srv.URL)
	ctx := context.Background()
	if err := registry.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := registry.SetLock(ctx, 1, true); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.Move(ctx, 1, 10, 10); !errors.Is(err, ErrLayoutLocked) {
		t.Fatalf("move on locked element: err = %v, want ErrLayoutLocked", err)
	}
	if _, err := registry.Resize(ctx, 1, 80, 80); !errors.Is(err, ErrLayoutLocked) {
		t.Fatalf("resize on locked element: err = %v, want ErrLayoutLocked", err)
	}

	// lock is orthogonal to occupancy
	if _, err := registry.Occupy(ctx, 1); err != nil {
		t.Fatalf("occupy on locked table must succeed: %v", err)
	}
}

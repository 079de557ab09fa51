// Package tables tracks the floor layout and table occupancy. The backend
// owns the truth; the registry is a read-through cache mutated through a
// single optimistic-apply-with-rollback path.
package tables

import (
	"context"
	"errors"
	"sort"
	"sync"

	"comanda/apierr"
	"comanda/client"
	"comanda/logger"
	"comanda/models"
	"comanda/session"
	"comanda/statemachine"
)

var ErrUnknownTable = errors.New("table is not in the current layout")

// ErrLayoutLocked is returned for layout edits on a locked element. The lock
// never gates occupancy changes.
var ErrLayoutLocked = errors.New("layout element is locked")

type Registry struct {
	mu      sync.RWMutex
	api     *client.Client
	session *session.Session
	tables  map[uint]models.Table
	stale   bool
	log     *logger.Logger
}

func NewRegistry(api *client.Client, sess *session.Session) *Registry {
	return &Registry{
		api:     api,
		session: sess,
		tables:  make(map[uint]models.Table),
		log:     logger.New("table-registry"),
	}
}

// Refresh fetches the layout. On a transport failure it falls back to the
// cached copy from the session store, marking the view stale; the cache is a
// display fallback only, never authoritative. A cancelled context is a no-op.
func (r *Registry) Refresh(ctx context.Context) error {
	fetched, err := r.api.ListTables(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		var netErr *apierr.NetworkError
		var timeoutErr *apierr.TimeoutError
		if r.session != nil && (errors.As(err, &netErr) || errors.As(err, &timeoutErr)) {
			if cached, ok, cacheErr := r.session.CachedLayout(); cacheErr == nil && ok {
				r.replace(cached, true)
				r.log.Warn("", "tables_refresh", "backend unreachable, showing cached layout")
				return nil
			}
		}
		return err
	}
	r.replace(fetched, false)
	if r.session != nil {
		if err := r.session.CacheLayout(fetched); err != nil {
			r.log.Warn("", "tables_refresh", "failed to cache layout: "+err.Error())
		}
	}
	return nil
}

func (r *Registry) replace(tables []models.Table, stale bool) {
	next := make(map[uint]models.Table, len(tables))
	for _, t := range tables {
		next[t.ID] = t
	}
	r.mu.Lock()
	r.tables = next
	r.stale = stale
	r.mu.Unlock()
}

// Stale reports whether the current view came from the fallback cache.
func (r *Registry) Stale() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stale
}

// Tables returns the layout sorted by ID.
func (r *Registry) Tables() []models.Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Find looks a table up by ID.
func (r *Registry) Find(id uint) (models.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	return t, ok
}

// Counts returns how many seatable tables are in each occupancy state.
func (r *Registry) Counts() (available, busy, reserved int) {
	for _, t := range r.Tables() {
		if t.Kind != models.KindTable {
			continue
		}
		switch t.Status {
		case models.TableAvailable:
			available++
		case models.TableBusy:
			busy++
		case models.TableReserved:
			reserved++
		}
	}
	return available, busy, reserved
}

// applyRemote is the single optimistic-update path: mutate the local copy,
// call the backend, and either adopt the server's row or revert to the
// previous one. A cancelled context reverts silently (late results are
// dropped, not applied).
func (r *Registry) applyRemote(id uint, local func(*models.Table), call func(version int) (models.Table, error)) (models.Table, error) {
	r.mu.Lock()
	prev, ok := r.tables[id]
	if !ok {
		r.mu.Unlock()
		return models.Table{}, ErrUnknownTable
	}
	next := prev
	local(&next)
	r.tables[id] = next
	r.mu.Unlock()

	updated, err := call(prev.Version)
	if err != nil {
		r.mu.Lock()
		r.tables[id] = prev
		r.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			return models.Table{}, context.Canceled
		}
		return models.Table{}, err
	}

	r.mu.Lock()
	r.tables[id] = updated
	r.mu.Unlock()
	return updated, nil
}

// transition moves a table between occupancy states, validating against the
// occupancy machine before any request is sent.
func (r *Registry) transition(ctx context.Context, id uint, to models.TableStatus, reservedBy string) (models.Table, error) {
	current, ok := r.Find(id)
	if !ok {
		return models.Table{}, ErrUnknownTable
	}
	if err := statemachine.CanOccupy(current.Status, to, reservedBy); err != nil {
		return models.Table{}, err
	}
	return r.applyRemote(id,
		func(t *models.Table) {
			t.Status = to
			t.ReservedBy = reservedBy
		},
		func(version int) (models.Table, error) {
			patch := models.TablePatch{Status: &to, ReservedBy: &reservedBy, Version: version}
			return r.api.UpdateTable(ctx, id, patch)
		})
}

// Reserve marks an available table reserved for the named customer.
func (r *Registry) Reserve(ctx context.Context, id uint, customerName string) (models.Table, error) {
	return r.transition(ctx, id, models.TableReserved, customerName)
}

// Seat marks a reserved table busy: the customer arrived. The reservation
// name is kept so the busy table still shows who it was reserved for.
func (r *Registry) Seat(ctx context.Context, id uint) (models.Table, error) {
	current, ok := r.Find(id)
	if !ok {
		return models.Table{}, ErrUnknownTable
	}
	return r.transition(ctx, id, models.TableBusy, current.ReservedBy)
}

// CancelReservation returns a reserved table to available.
func (r *Registry) CancelReservation(ctx context.Context, id uint) (models.Table, error) {
	return r.transition(ctx, id, models.TableAvailable, "")
}

// Release frees a busy table.
func (r *Registry) Release(ctx context.Context, id uint) (models.Table, error) {
	return r.transition(ctx, id, models.TableAvailable, "")
}

// Occupy seats walk-in customers at an available table directly.
func (r *Registry) Occupy(ctx context.Context, id uint) (models.Table, error) {
	return r.transition(ctx, id, models.TableBusy, "")
}

// Move repositions a layout element. Locked elements reject layout edits.
func (r *Registry) Move(ctx context.Context, id uint, x, y float64) (models.Table, error) {
	current, ok := r.Find(id)
	if !ok {
		return models.Table{}, ErrUnknownTable
	}
	if current.Locked {
		return models.Table{}, ErrLayoutLocked
	}
	return r.applyRemote(id,
		func(t *models.Table) {
			t.X = x
			t.Y = y
		},
		func(version int) (models.Table, error) {
			return r.api.UpdateTable(ctx, id, models.TablePatch{X: &x, Y: &y, Version: version})
		})
}

// Resize changes a layout element's footprint. Locked elements reject it.
func (r *Registry) Resize(ctx context.Context, id uint, width, height float64) (models.Table, error) {
	current, ok := r.Find(id)
	if !ok {
		return models.Table{}, ErrUnknownTable
	}
	if current.Locked {
		return models.Table{}, ErrLayoutLocked
	}
	return r.applyRemote(id,
		func(t *models.Table) {
			t.Width = width
			t.Height = height
		},
		func(version int) (models.Table, error) {
			return r.api.UpdateTable(ctx, id, models.TablePatch{Width: &width, Height: &height, Version: version})
		})
}

// SetLock toggles the layout lock. The lock itself may always be changed.
func (r *Registry) SetLock(ctx context.Context, id uint, locked bool) (models.Table, error) {
	return r.applyRemote(id,
		func(t *models.Table) {
			t.Locked = locked
		},
		func(version int) (models.Table, error) {
			return r.api.UpdateTable(ctx, id, models.TablePatch{Locked: &locked, Version: version})
		})
}

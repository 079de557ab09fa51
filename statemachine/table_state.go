package statemachine

import (
	"comanda/apierr"
	"comanda/models"
)

// OccupancyTransition defines a valid table occupancy change. RequiresName
// marks transitions that must carry a customer name (reservations).
type OccupancyTransition struct {
	From         models.TableStatus `json:"from"`
	To           models.TableStatus `json:"to"`
	RequiresName bool               `json:"requiresName"`
}

var occupancyTransitions = []OccupancyTransition{
	// reserve: a customer name is mandatory
	{From: models.TableAvailable, To: models.TableReserved, RequiresName: true},
	// customer arrived
	{From: models.TableReserved, To: models.TableBusy},
	// cancel reservation
	{From: models.TableReserved, To: models.TableAvailable},
	// release the table
	{From: models.TableBusy, To: models.TableAvailable},
	// direct occupy, client self-service flow
	{From: models.TableAvailable, To: models.TableBusy},
}

var occupancyMap = func() map[[2]models.TableStatus]OccupancyTransition {
	m := make(map[[2]models.TableStatus]OccupancyTransition)
	for _, t := range occupancyTransitions {
		m[[2]models.TableStatus{t.From, t.To}] = t
	}
	return m
}()

// CanOccupy checks whether a table may move between the two occupancy states
// with the given reservation name. The table lock never gates occupancy, only
// layout edits, so it is deliberately not consulted here.
func CanOccupy(from, to models.TableStatus, reservedBy string) error {
	t, ok := occupancyMap[[2]models.TableStatus{from, to}]
	if !ok {
		return &apierr.InvalidTransitionError{From: string(from), To: string(to)}
	}
	if t.RequiresName && reservedBy == "" {
		return &apierr.ValidationError{Field: "reservedBy", Reason: "is required to reserve a table"}
	}
	return nil
}

// OccupancyTransitions returns the full occupancy machine, served verbatim by
// the /transitions documentation endpoint.
func OccupancyTransitions() []OccupancyTransition {
	return occupancyTransitions
}

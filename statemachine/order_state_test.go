package statemachine

import (
	"errors"
	"testing"

	"comanda/apierr"
	"comanda/models"
)

func TestHappyPathIsMonotonic(t *testing.T) {
	path := []models.OrderStatus{
		models.StatusPending, models.StatusPreparing, models.StatusReady, models.StatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		if err := CanTransition(path[i], path[i+1], ActorStaff); err != nil {
			t.Fatalf("%s -> %s should be allowed for staff: %v", path[i], path[i+1], err)
		}
	}
	// no going backwards
	if err := CanTransition(models.StatusReady, models.StatusPreparing, ActorStaff); err == nil {
		t.Fatal("ready -> preparing must be rejected")
	}
	// no skipping ahead
	if err := CanTransition(models.StatusPending, models.StatusReady, ActorStaff); err == nil {
		t.Fatal("pending -> ready must be rejected")
	}
}

func TestCancellationEligibility(t *testing.T) {
	for _, status := range []models.OrderStatus{models.StatusPending, models.StatusPreparing, models.StatusReady} {
		if !Cancellable(status) {
			t.Fatalf("%s must be cancellable", status)
		}
	}
	for _, status := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled} {
		if Cancellable(status) {
			t.Fatalf("%s must not be cancellable", status)
		}
	}
}

func TestDeliveredIsTerminal(t *testing.T) {
	err := CanTransition(models.StatusDelivered, models.StatusCancelled, ActorCustomer)
	var invalid *apierr.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("delivered -> cancelled: err = %v, want InvalidTransitionError", err)
	}
	if nexts := ValidTransitionsFrom(models.StatusDelivered); len(nexts) != 0 {
		t.Fatalf("delivered has next states %v, want none", nexts)
	}
	if nexts := ValidTransitionsFrom(models.StatusCancelled); len(nexts) != 0 {
		t.Fatalf("cancelled has next states %v, want none", nexts)
	}
}

func TestCustomerCannotDriveKitchen(t *testing.T) {
	if err := CanTransition(models.StatusPending, models.StatusPreparing, ActorCustomer); err == nil {
		t.Fatal("customers must not move orders into preparing")
	}
	if err := CanTransition(models.StatusReady, models.StatusDelivered, ActorCustomer); err == nil {
		t.Fatal("customers must not mark orders delivered")
	}
}

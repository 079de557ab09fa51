package stubserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"comanda/models"
	"comanda/statemachine"
)

func (s *Server) listOrders(c *gin.Context) {
	var orders []models.Order
	if err := s.db.Preload("Items").Order("id").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// createOrder re-prices every item from the stub's own catalog: the client's
// price snapshots are display-only and never trusted. Stock is checked and
// decremented as part of creation.
func (s *Server) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var items []models.OrderItem
	for _, reqItem := range req.Items {
		var product models.Product
		if err := s.db.First(&product, reqItem.ProductID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product not found"})
			return
		}
		if !product.Orderable() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product '" + product.Name + "' is not available"})
			return
		}
		if reqItem.Quantity > product.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": "not enough stock for '" + product.Name + "'"})
			return
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  reqItem.Quantity,
			UnitPrice: product.Price,
			Name:      product.Name,
		})
	}

	order := models.Order{
		CustomerName: req.CustomerName,
		TableID:      req.TableID,
		Status:       models.StatusPending,
		Notes:        req.Notes,
		Items:        items,
	}
	// creation and stock decrements commit together: a failed decrement must
	// not leave an order persisted against undecremented stock
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, item := range items {
			res := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	s.db.Preload("Items").First(&order, order.ID)
	c.JSON(http.StatusCreated, order)
}

type statusPatch struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// updateOrderStatus enforces the order state machine server-side as well:
// the client pre-validates, but the stored status is what counts.
func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var order models.Order
	if err := s.db.Preload("Items").First(&order, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	var patch statusPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !reachable(order.Status, patch.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid transition: " + string(order.Status) + " -> " + string(patch.Status),
		})
		return
	}
	order.Status = patch.Status
	if err := s.db.Save(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// reachable ignores the acting role: the stub has no way to know who is
// calling, so any transition the machine defines for some actor passes.
func reachable(from, to models.OrderStatus) bool {
	for _, next := range statemachine.ValidTransitionsFrom(from) {
		if next == to {
			return true
		}
	}
	return false
}

// listTransitions documents both state machines so a client developer can
// see every legal move without reading the code.
func (s *Server) listTransitions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"orders": statemachine.AllTransitions(),
		"tables": statemachine.OccupancyTransitions(),
	})
}

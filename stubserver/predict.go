package stubserver

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
)

type stockQuery struct {
	TargetDate   string `json:"target_date" binding:"required"`
	ProductID    uint   `json:"product_id" binding:"required"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
}

// predictStock stands in for the external ML service with a deterministic
// heuristic: a fifth of current stock sells tomorrow, at least one unit.
// Good enough for the display pipeline; the real service owns the model.
func (s *Server) predictStock(c *gin.Context) {
	var q stockQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	estimated := math.Max(1, math.Round(float64(q.CurrentStock)*0.2))
	c.JSON(http.StatusOK, gin.H{
		"prediction": gin.H{
			"estimated_sales":            estimated,
			"projected_stock_end_of_day": float64(q.CurrentStock) - estimated,
		},
	})
}

func (s *Server) retrainModel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "stub model refreshed"})
}

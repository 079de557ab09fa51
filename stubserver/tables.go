package stubserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"comanda/models"
)

func (s *Server) listTables(c *gin.Context) {
	var tables []models.Table
	if err := s.db.Order("id").Find(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tables"})
		return
	}
	c.JSON(http.StatusOK, tables)
}

// updateTable applies a partial update with a version check: a patch carrying
// a version older than the stored row means another device wrote in between,
// and the write is rejected with 409 instead of silently overwritten.
func (s *Server) updateTable(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var table models.Table
	if err := s.db.First(&table, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}
	var patch models.TablePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Version != 0 && patch.Version != table.Version {
		c.JSON(http.StatusConflict, gin.H{"error": "table was modified by another device"})
		return
	}
	if patch.Status != nil {
		switch *patch.Status {
		case models.TableAvailable, models.TableBusy, models.TableReserved:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown occupancy status"})
			return
		}
		table.Status = *patch.Status
	}
	if patch.ReservedBy != nil {
		table.ReservedBy = *patch.ReservedBy
	}
	if patch.Label != nil {
		table.Label = *patch.Label
	}
	if patch.X != nil {
		table.X = *patch.X
	}
	if patch.Y != nil {
		table.Y = *patch.Y
	}
	if patch.Width != nil {
		table.Width = *patch.Width
	}
	if patch.Height != nil {
		table.Height = *patch.Height
	}
	if patch.Locked != nil {
		table.Locked = *patch.Locked
	}
	table.Version++
	if err := s.db.Save(&table).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update table"})
		return
	}
	c.JSON(http.StatusOK, table)
}

// Package stubserver is an in-memory double of the restaurant backend,
// implementing the observed REST contract for local development and
// integration tests. It is not the production backend; it exists so the
// client can be exercised against real wire shapes without a deployment.
package stubserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"comanda/models"
)

type Server struct {
	db     *gorm.DB
	engine *gin.Engine
	secret []byte
}

// Open backs the stub with a sqlite file; pass ":memory:" for tests.
func Open(path string, secret []byte) (*Server, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Table{}, &models.Order{}, &models.OrderItem{}); err != nil {
		return nil, err
	}
	s := &Server{db: db, secret: secret}
	s.setupRoutes()
	return s, nil
}

// NewInMemory is the test constructor.
func NewInMemory(secret []byte) (*Server, error) {
	return Open(":memory:", secret)
}

func (s *Server) setupRoutes() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "comanda-stub"})
	})
	r.GET("/transitions", s.listTransitions)

	r.POST("/auth/login", s.login)

	authed := r.Group("/")
	authed.Use(s.authOptional())
	{
		authed.GET("/products", s.listProducts)
		authed.POST("/products", s.createProduct)
		authed.PATCH("/products/:id", s.updateProduct)
		authed.DELETE("/products/:id", s.deleteProduct)

		authed.GET("/tables", s.listTables)
		authed.PATCH("/tables/:id", s.updateTable)

		authed.GET("/orders", s.listOrders)
		authed.POST("/orders", s.createOrder)
		authed.PATCH("/orders/:id", s.updateOrderStatus)
	}

	// stand-in for the separate ML service, so one stub serves local runs
	r.POST("/predict-stock", s.predictStock)
	r.POST("/retrain-model", s.retrainModel)

	s.engine = r
}

// Router exposes the handler for httptest servers.
func (s *Server) Router() http.Handler {
	return s.engine
}

// Run starts the stub on the given address.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Seed loads a starting dataset for local development.
func (s *Server) Seed(products []models.Product, tables []models.Table) error {
	for i := range products {
		if err := s.db.Create(&products[i]).Error; err != nil {
			return err
		}
	}
	for i := range tables {
		if tables[i].Version == 0 {
			tables[i].Version = 1
		}
		if err := s.db.Create(&tables[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// DefaultSeed is the dataset used by `comanda stub`.
func DefaultSeed() ([]models.Product, []models.Table) {
	products := []models.Product{
		{Name: "Coke", Price: 5.00, IsAvailable: true, Quantity: 24, MinStock: 10, Category: models.Category{ID: 1, Name: "Drinks"}},
		{Name: "House Burger", Price: 32.90, IsAvailable: true, Quantity: 15, MinStock: 5, Category: models.Category{ID: 2, Name: "Mains"}},
		{Name: "Fries", Price: 14.50, IsAvailable: true, Quantity: 30, MinStock: 8, Category: models.Category{ID: 3, Name: "Sides"}},
		{Name: "Caipirinha", Price: 22.00, IsAvailable: false, Quantity: 12, MinStock: 6, Category: models.Category{ID: 1, Name: "Drinks"}},
	}
	tables := []models.Table{
		{Label: "Mesa 1", Kind: models.KindTable, Seats: 4, X: 40, Y: 40, Status: models.TableAvailable},
		{Label: "Mesa 2", Kind: models.KindTable, Seats: 2, X: 160, Y: 40, Status: models.TableAvailable},
		{Label: "Mesa 3", Kind: models.KindTable, Seats: 6, X: 280, Y: 40, Status: models.TableBusy},
		{Label: "Entrance", Kind: models.KindReference, X: 10, Y: 200, Width: 60, Height: 20},
	}
	return products, tables
}

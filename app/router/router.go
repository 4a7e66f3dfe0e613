package router

import (
	"chainsched/app/handler"
	"chainsched/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	scheduleHandler *handler.ScheduleHandler
	fleetHandler    *handler.FleetHandler
	ledgerHandler   *handler.LedgerHandler
}

// NewRouter creates a new Router
func NewRouter(scheduleHandler *handler.ScheduleHandler, fleetHandler *handler.FleetHandler, ledgerHandler *handler.LedgerHandler) *Router {
	return &Router{
		scheduleHandler: scheduleHandler,
		fleetHandler:    fleetHandler,
		ledgerHandler:   ledgerHandler,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	v1 := engine.Group("/v1")
	{
		v1.POST("/schedule", r.scheduleHandler.Schedule)
		v1.GET("/config", r.scheduleHandler.GetConfig)

		// Fleet snapshot management (requires the redis fleet store)
		if r.fleetHandler != nil {
			vms := v1.Group("/vms")
			{
				vms.PUT("", r.fleetHandler.Register)
				vms.GET("", r.fleetHandler.List)
				vms.DELETE("/:id", r.fleetHandler.Delete)
			}
		}

		// Ledger inspection (blockchain policy only)
		ledger := v1.Group("/ledger/:scheduler")
		{
			ledger.GET("", r.ledgerHandler.GetLedger)
			ledger.GET("/verify", r.ledgerHandler.Verify)
			ledger.POST("/mine", r.ledgerHandler.Mine)
			ledger.GET("/history", r.ledgerHandler.History)
		}
	}

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

package handlers

import (
	portssvc "github.com/finsentry/aml_backend/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	registerHomeRoutes(r)

	v1 := r.Group("/api/v1")
	registerTransactionRoutes(v1, services.Transaction)
	registerFraudRoutes(v1, services.Risk, services.Graph)
	registerAccountRoutes(v1, services.Account, services.Transaction)
}

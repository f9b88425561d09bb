package handlers

import (
	"net/http"
	"strconv"

	portssvc "github.com/finsentry/aml_backend/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

const defaultSubgraphDepth = 2

// fraudHandler handles HTTP requests related to fraud analysis.
type fraudHandler struct {
	riskService  portssvc.RiskSvcFacade
	graphService portssvc.GraphSvcFacade
}

// registerFraudRoutes registers routes related to fraud analysis.
func registerFraudRoutes(rg *gin.RouterGroup, riskService portssvc.RiskSvcFacade, graphService portssvc.GraphSvcFacade) {
	h := &fraudHandler{riskService: riskService, graphService: graphService}

	fraud := rg.Group("/fraud")
	{
		fraud.GET("/score/:accountID", h.scoreAccount)
		fraud.GET("/subgraph/:accountID", h.extractSubgraph)
		fraud.GET("/rings", h.findRings)
	}
}

// scoreAccount returns the full risk assessment for one account.
func (h *fraudHandler) scoreAccount(c *gin.Context) {
	assessment, err := h.riskService.ScoreAccountRisk(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// extractSubgraph returns the account's transaction neighborhood. The hop
// depth comes from the "depth" query parameter and defaults to 2.
func (h *fraudHandler) extractSubgraph(c *gin.Context) {
	depth := defaultSubgraphDepth
	if raw := c.Query("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid depth parameter: " + raw})
			return
		}
		depth = parsed
	}

	subgraph, err := h.graphService.ExtractSubgraph(c.Request.Context(), c.Param("accountID"), depth)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subgraph)
}

// findRings returns the circular transaction paths detected over the ledger.
func (h *fraudHandler) findRings(c *gin.Context) {
	rings, err := h.graphService.FindRings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rings": rings, "count": len(rings)})
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ministack/ministack/internal/dispatch"
	"github.com/ministack/ministack/pkg/netutil"
)

const APIPathQueryStats = "/api/stats"

type InterfaceStats struct {
	Name   string               `json:"name"`
	Link   netutil.Statistics   `json:"link"`
	Decode dispatch.DecodeStats `json:"decode"`
}

type QueryStatsResp struct {
	Interfaces []InterfaceStats `json:"interfaces"`
}

type StatsAPI interface {
	// QueryStats returns stats for the named interface, or for all
	// captured interfaces when name is empty.
	QueryStats(name string) ([]InterfaceStats, error)
}

type statsHandler struct {
	impl StatsAPI
}

func SetStatsRouter(g *gin.Engine, s StatsAPI) {
	h := statsHandler{impl: s}
	g.GET(APIPathQueryStats, h.QueryStats)
}

func (h *statsHandler) QueryStats(c *gin.Context) {
	ifaces, err := h.impl.QueryStats(c.Request.URL.Query().Get("interface"))
	if err != nil {
		Error(c, ErrorCodeInternal, err)
		return
	}
	Success(c, QueryStatsResp{Interfaces: ifaces})
}

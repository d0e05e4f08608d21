package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quantsignal/internal/logger"
	"quantsignal/internal/options"
	"quantsignal/internal/report"
	"quantsignal/internal/service"
)

// Router exposes the analysis pipeline over HTTP.
type Router struct {
	analyzer *service.Analyzer
}

func NewRouter(analyzer *service.Analyzer) *Router {
	return &Router{analyzer: analyzer}
}

// Register mounts the API routes on the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/symbols/:symbol/analysis", r.handleAnalysis)
	group.GET("/symbols/:symbol/indicators", r.handleIndicators)
	group.GET("/symbols/:symbol/levels", r.handleLevels)
	group.GET("/symbols/:symbol/trend", r.handleTrend)
	group.GET("/symbols/:symbol/chart", r.handleChart)
	group.POST("/options/rank", r.handleRankOptions)
	group.POST("/options/analyze", r.handleAnalyzeOption)
}

func (r *Router) analyze(c *gin.Context) (*service.Report, bool) {
	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return nil, false
	}
	rep, err := r.analyzer.Analyze(c.Request.Context(), symbol)
	if err != nil {
		logger.Errorf("[api] analysis for %s failed: %v", symbol, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return nil, false
	}
	return rep, true
}

func (r *Router) handleAnalysis(c *gin.Context) {
	rep, ok := r.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (r *Router) handleIndicators(c *gin.Context) {
	rep, ok := r.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trace_id":    rep.TraceID,
		"symbol":      rep.Symbol,
		"price":       rep.Price,
		"resolutions": rep.Resolutions,
	})
}

func (r *Router) handleLevels(c *gin.Context) {
	rep, ok := r.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trace_id":    rep.TraceID,
		"symbol":      rep.Symbol,
		"price":       rep.Price,
		"supports":    rep.Levels.Supports,
		"resistances": rep.Levels.Resistances,
	})
}

func (r *Router) handleTrend(c *gin.Context) {
	rep, ok := r.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trace_id": rep.TraceID,
		"symbol":   rep.Symbol,
		"trend":    rep.Trend,
	})
}

func (r *Router) handleChart(c *gin.Context) {
	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	bars, set, levels, err := r.analyzer.PrimarySeries(c.Request.Context(), symbol)
	if err != nil {
		logger.Errorf("[api] chart for %s failed: %v", symbol, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.RenderChart(c.Writer, symbol, bars, set, levels); err != nil {
		logger.Errorf("[api] chart render for %s failed: %v", symbol, err)
	}
}

// RankRequest is the request body for ranking an option chain.
type RankRequest struct {
	Type       options.Type       `json:"type"`
	Underlying float64            `json:"underlying"`
	DTE        float64            `json:"dte"`
	Contracts  []options.Contract `json:"contracts"`
}

func (r *Router) handleRankOptions(c *gin.Context) {
	var req RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	scored, err := r.analyzer.RankChain(req.Contracts, req.Type, req.Underlying, req.DTE)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranked": scored, "count": len(scored)})
}

// AnalyzeRequest is the request body for the single-contract breakdown.
type AnalyzeRequest struct {
	Type       options.Type     `json:"type"`
	Underlying float64          `json:"underlying"`
	DTE        float64          `json:"dte"`
	Contract   options.Contract `json:"contract"`
}

func (r *Router) handleAnalyzeOption(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	rep, err := r.analyzer.AnalyzeContract(req.Contract, req.Type, req.Underlying, req.DTE)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prices := options.PriceGrid(req.Underlying, 0.3, 41)
	c.JSON(http.StatusOK, gin.H{
		"report": rep,
		"payoff": gin.H{
			"prices": prices,
			"pnl":    options.PayoffCurve(req.Type, req.Contract.Strike, req.Contract.LastPrice, prices),
		},
	})
}

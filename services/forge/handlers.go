// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package forge

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/StreamHouseAI/vrlforge/pkg/logging"
	"github.com/StreamHouseAI/vrlforge/services/forge/session"
)

// Handlers exposes the engine over HTTP.
type Handlers struct {
	engine *Engine
	log    *logging.Logger
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(engine *Engine, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.Default()
	}
	return &Handlers{engine: engine, log: log}
}

// SubmitRequest is the JSON body of a session submission. Omitted
// budget fields fall back to the defaults.
type SubmitRequest struct {
	Task           string   `json:"task" binding:"required"`
	Samples        []string `json:"samples" binding:"required,min=1"`
	Models         []string `json:"models"`
	MaxIterations  int      `json:"max_iterations"`
	CostCeilingUSD float64  `json:"cost_ceiling_usd"`
}

// HandleSubmit runs one session synchronously and returns the
// result.
//
// POST /v1/forge/sessions
func (h *Handlers) HandleSubmit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := session.DefaultConfig()
	cfg.Task = req.Task
	cfg.Samples = req.Samples
	if len(req.Models) > 0 {
		cfg.Models = req.Models
	}
	if req.MaxIterations > 0 {
		cfg.MaxIterations = req.MaxIterations
	}
	if req.CostCeilingUSD > 0 {
		cfg.CostCeilingUSD = req.CostCeilingUSD
	}

	result, err := h.engine.Submit(c.Request.Context(), cfg)
	if err != nil {
		h.log.Error("session submit failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleHealth reports liveness.
//
// GET /v1/forge/health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

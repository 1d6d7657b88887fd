// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package forge

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all forge routes with the router group.
//
// Endpoints:
//
//	POST /v1/forge/sessions - Run a generation-repair session
//	GET  /v1/forge/health   - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	forge := rg.Group("/forge")
	{
		forge.POST("/sessions", handlers.HandleSubmit)
		forge.GET("/health", handlers.HandleHealth)
	}
}

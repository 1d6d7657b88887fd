// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command forgeserver starts a standalone VRL forge API server.
//
// Usage:
//
//	go run ./cmd/forgeserver
//	go run ./cmd/forgeserver -port 9090
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/forge/health
//
//	# Submit a generation session
//	curl -X POST http://localhost:8080/v1/forge/sessions \
//	  -H "Content-Type: application/json" \
//	  -d '{"task": "Parse SSH auth logs", "samples": ["Jan 1 sshd[1]: Accepted publickey for root"]}'
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/StreamHouseAI/vrlforge/pkg/logging"
	"github.com/StreamHouseAI/vrlforge/services/forge"
	"github.com/StreamHouseAI/vrlforge/services/forge/validate"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	rateLimit := flag.Float64("rate-limit", 2.0, "Model requests per second, 0 disables")
	auditLog := flag.String("audit-log", "", "File receiving one line per log entry")
	flag.Parse()

	// Set Gin mode
	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	level := logging.LevelInfo
	if *debug {
		level = logging.LevelDebug
	}
	logCfg := logging.Config{Level: level, Service: "forgeserver", JSON: true}
	if *auditLog != "" {
		f, err := os.OpenFile(*auditLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			log.Fatalf("Failed to open audit log: %v", err)
		}
		defer f.Close()
		logCfg.Exporter = logging.NewWriterExporter(f)
	}
	logger := logging.New(logCfg)
	defer logger.Close()

	// Every session shares one vector binary wrapper for both the
	// syntax check and runtime roles.
	vector := validate.NewVectorTool()
	opts := []forge.EngineOption{forge.WithLogger(logger)}
	if *rateLimit > 0 {
		opts = append(opts, forge.WithRateLimit(*rateLimit))
	}
	engine := forge.NewEngine(vector, vector, opts...)

	// Create handlers
	handlers := forge.NewHandlers(engine, logger)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	if *debug {
		router.Use(gin.Logger())
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	v1 := router.Group("/v1")
	forge.RegisterRoutes(v1, handlers)

	// Print startup banner
	printBanner(*port)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\nShutting down forge server...")
		os.Exit(0)
	}()

	// Start server
	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Starting forge server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func printBanner(port int) {
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                       VRL FORGE SERVER                            ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Generates VRL parsers from sample logs via an LLM loop.          ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/v1/forge/health                  │  ║
║  │                                                             │  ║
║  │ # Submit a session                                          │  ║
║  │ curl -X POST http://localhost:%d/v1/forge/sessions \      │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"task": "...", "samples": ["..."]}'                  │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── POST /v1/forge/sessions  Run a generation session            ║
║  ├── GET  /v1/forge/health    Liveness probe                      ║
║  └── GET  /metrics            Prometheus metrics                  ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, port, port)
}

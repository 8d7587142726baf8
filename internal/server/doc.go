// Package server provides the optional HTTP server of taskpool.
//
// The server is started by "taskpool run --http-port N" and lives as long
// as the run. It uses the Gin web framework.
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         HTTP Server                           │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Middleware Stack                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  ginzap.Ginzap (request logging, "http" logger)         │  │
//	│  │  ginzap.RecoveryWithZap (panic recovery)                │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	├───────────────────────────────────────────────────────────────┤
//	│  /metrics            Prometheus exposition                    │
//	│  /api/v1             Handlers (registered via callback)       │
//	│  anything else       404 JSON error                           │
//	└───────────────────────────────────────────────────────────────┘
//
// # Server Lifecycle
//
//	srv, err := server.NewServer(cfg.Server, registry, func(router *gin.RouterGroup) {
//	    v1.RegisterHandlers(router, handler)
//	})
//
//	go srv.Start(ctx)   // blocks until Stop
//	...
//	srv.Stop(ctx)       // graceful shutdown
package server

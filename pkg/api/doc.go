// Package api provides the HTTP API server for dockupdate.
// It serves JSON endpoints over a chi router with permissive CORS, optional bearer
// token authentication, and graceful shutdown.
//
// Key components:
//   - API: Manages route registration and server lifecycle.
//   - RequireToken: Middleware enforcing bearer token authentication.
//   - CORS: Middleware answering cross-origin requests and preflights.
//   - WriteJSON: Shared JSON response helper used by endpoint handlers.
//
// Usage example:
//
//	api := api.New(token, ":3456")
//	api.RegisterFunc("/api/containers", handler)
//	api.Start(ctx, true)
package api

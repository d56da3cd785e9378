// Package server wraps http.Server with graceful shutdown, sane timeout
// defaults, and environment-based configuration.
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	if err := srv.Start(ctx, handler); err != nil {
//		return err
//	}
package server

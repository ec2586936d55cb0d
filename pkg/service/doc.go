// Package service runs a set of range triggers built from configuration.
//
// Service owns every trigger node, routes inbound messages to them by ID
// or name, and fans their outputs out to registered handlers:
//
//	cfg, _ := config.Load("valuefor.yaml")
//	svc, err := service.New(cfg, service.WithLogger(logger))
//	svc.OnOutput(func(out service.Output) { ... })
//	svc.Start(ctx) // restores persisted deadlines
//	defer svc.Stop()
//
//	svc.Input("boiler", message.Message{"payload": 42.0})
//
// Start restores each node's persisted state before any input is accepted.
// Stop halts pending deadlines but keeps their persisted state, so they
// resume on the next Start.
package service

// Package racing fetches "next to go" races from the upstream racing API and
// keeps them fresh behind a coalescing cache.
//
// Client talks to the upstream API; Store owns the polling loop and serves
// filtered, sorted snapshots; NewHandler exposes the store as a JSON
// endpoint. Concurrent refreshes collapse into one upstream call, and results
// are cached for the configured TTL so the serving path rarely blocks on the
// network.
//
//	client := racing.NewClient(clientCfg, racing.WithClientLogger(log))
//	store, err := racing.NewStore(client, storeCfg, racing.WithStoreLogger(log))
//	if err != nil {
//		return err
//	}
//	if err := store.Start(ctx); err != nil {
//		return err
//	}
//	defer store.Stop()
//
//	races, err := store.Next(ctx, 5, racing.CategoryHorse)
package racing

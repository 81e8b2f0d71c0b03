// Package worker implements the render worker lifecycle and Redis Streams integration.
//
// The worker consumes render requests from a Redis stream, renders them
// through the template engine and publishes results back to a result stream.
// Failures are published to the result stream with an ".errors" suffix.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//	engine := template.NewEngine(registry, logger)
//	data := worker.NewRedisDataStore(redisClient, cfg.DataKey, logger)
//
//	w := worker.NewWorker(cfg, redisClient, engine, data, logger)
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// A render request is a JSON document in the "data" field of the message:
//
//	{"job_id": "...", "template": "{{upper name}}", "data": {"name": "x"}, "filters": ["trim"]}
//
// "data_key" may replace "data" to render with data stored by RedisDataStore.
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8083, redisClient, registry, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker

// Package store reads entity lists and persists geocoding results.
//
// Input is a JSON array of entity names. Output goes to one or more Sinks:
//
//   - JSONFile writes the ResultMap as an indented UTF-8 JSON object
//   - Redis writes each entity as a field of a Redis hash
//   - Multi fans a single Save out to several sinks
//
// # Basic Usage
//
//	entities, err := store.LoadEntities("cities.json")
//	if err != nil {
//		return err
//	}
//
//	results := fetcher.FetchAll(ctx, entities)
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	sink := store.NewMulti(
//		store.NewJSONFile("coordinates.json"),
//		store.NewRedis(redisClient, store.DefaultKey.String()),
//	)
//	if err := sink.Save(ctx, results); err != nil {
//		return err
//	}
//
// # Redis Layout
//
// Results live in a single hash, geo:coordinates by default. The field is the
// entity name and the value is the outcome JSON, exactly as it appears in the
// output file:
//
//	HGET geo:coordinates "Paris, France"
//	{"latitude":"48.8534951","longitude":"2.3483915"}
//
// Saving the same results twice leaves the hash unchanged.
//
// # Metrics
//
//   - geo_store_writes_total{sink} - Successful saves
//   - geo_store_entries_total{sink} - Entries written
//   - geo_store_errors_total{sink,operation} - Failed store operations
package store

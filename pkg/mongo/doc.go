// Package mongo connects to MongoDB, which stores the audit trail.
//
// New applies the pool and retry settings from Config, verifies the
// connection with a ping and retries on failure. Healthcheck wraps a ping for
// readiness probes.
//
// # Usage
//
//	client, err := mongo.New(ctx, cfg.Mongo)
//	if err != nil {
//	    return err
//	}
//	defer client.Disconnect(context.Background())
//
//	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Audit.Collection)
//	storage := audit.NewMongoStorage(coll)
//
// Errors wrap ErrFailedToConnectToMongo or ErrHealthcheckFailed and can be
// matched with errors.Is.
package mongo

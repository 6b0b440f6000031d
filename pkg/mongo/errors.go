package mongo

import "errors"

var (
	ErrEmptyConnectionURL     = errors.New("mongo.empty_connection_url")
	ErrFailedToConnectToMongo = errors.New("mongo.connection_failed")
	ErrHealthcheckFailed      = errors.New("mongo.healthcheck_failed")
)

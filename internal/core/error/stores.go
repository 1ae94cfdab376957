package errx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

// wrapBackend maps a storage failure to 404 when notFound matches and to 502
// otherwise. Errors that already carry a status pass through.
func wrapBackend(err, notFound error, notFoundMsg, msg string) error {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) {
		return err
	}
	if notFound != nil && errors.Is(err, notFound) {
		return New(err, http.StatusNotFound, notFoundMsg)
	}
	return New(err, http.StatusBadGateway, msg)
}

// WrapRedis maps go-redis errors; redis.Nil becomes 404.
func WrapRedis(err error) error {
	return wrapBackend(err, redis.Nil, RedisNotFoundMessage, RedisErrorMessage)
}

// WrapPostgres maps pgx errors; pgx.ErrNoRows becomes 404.
func WrapPostgres(err error) error {
	return wrapBackend(err, pgx.ErrNoRows, PostgresNotFoundMessage, PostgresErrorMessage)
}

// WrapStore maps a document store failure.
func WrapStore(err error) error {
	return wrapBackend(err, nil, "", StoreErrorMessage)
}

package merge

import (
	"errors"

	"cluster-merge/core/reconcile"
	"cluster-merge/core/table"
	"cluster-merge/feature/merge/sources"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
)

// ErrBadRequest marks errors caused by the caller's input.
var ErrBadRequest = errors.New("bad request")

// StatusFor maps a merge error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, table.ErrDuplicateColumn),
		errors.Is(err, table.ErrLengthMismatch),
		errors.Is(err, table.ErrUnsupportedFormat),
		errors.Is(err, reconcile.ErrMissingEntity),
		errors.Is(err, sources.ErrOutputIsInput):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNoDatabase):
		return fiber.StatusServiceUnavailable
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket") {
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

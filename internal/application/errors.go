package application

import (
	"errors"

	"marketdata-service/internal/domain"
)

var ErrNotFound = domain.ErrNotFound
var ErrConflict = errors.New("conflict")
var ErrBadRequest = errors.New("bad request")

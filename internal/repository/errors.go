package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound indica que la fila buscada no existe o no pertenece al usuario.
var ErrNotFound = errors.New("not found")

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

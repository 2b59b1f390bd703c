package postgres

import (
	"errors"
	"testing"

	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestNotFoundMapsNoRows(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows, "booking"), xerrors.ErrNotFound)

	other := errors.New("connection reset")
	err := notFound(other, "booking")
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, xerrors.ErrNotFound)
}

func TestDuplicateMapsUniqueViolation(t *testing.T) {
	err := duplicate(&pgconn.PgError{Code: "23505"}, "user")
	assert.ErrorIs(t, err, xerrors.ErrDuplicateEntry)
	assert.Equal(t, 409, xerrors.HTTPStatus(err))

	err = duplicate(&pgconn.PgError{Code: "23503"}, "user")
	assert.NotErrorIs(t, err, xerrors.ErrDuplicateEntry)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, offset(0, 10))
	assert.Equal(t, 0, offset(1, 10))
	assert.Equal(t, 40, offset(3, 20))
}

func TestDeref(t *testing.T) {
	s := "x"
	assert.Equal(t, "x", deref(&s))
	assert.Equal(t, 0.0, deref[float64](nil))
}

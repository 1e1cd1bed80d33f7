package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewMatchesKind(t *testing.T) {
	err := New(ErrInvalidState, "site is %s", "approved")

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "site is approved", err.Error())
	assert.Equal(t, http.StatusConflict, Status(err))
}

func TestFromStore(t *testing.T) {
	t.Run("record not found", func(t *testing.T) {
		err := FromStore(gorm.ErrRecordNotFound, "brigade")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "brigade not found", Message(err))
	})

	t.Run("unique violations", func(t *testing.T) {
		for _, raw := range []error{
			gorm.ErrDuplicatedKey,
			&pgconn.PgError{Code: "23505"},
			&pq.Error{Code: "23505"},
			fmt.Errorf("constraint failed: UNIQUE constraint failed: sites.code (2067)"),
		} {
			assert.ErrorIs(t, FromStore(raw, "site"), ErrConflict, raw.Error())
		}
	})

	t.Run("deadline", func(t *testing.T) {
		err := FromStore(context.DeadlineExceeded, "site")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("already classified", func(t *testing.T) {
		in := New(ErrInvalidArgument, "bad")
		assert.Same(t, in, FromStore(in, "site"))
	})
}

func TestStatus(t *testing.T) {
	cases := map[error]int{
		ErrInvalidArgument:       http.StatusBadRequest,
		ErrNotFound:              http.StatusNotFound,
		ErrConflict:              http.StatusConflict,
		ErrUnauthenticated:       http.StatusUnauthorized,
		ErrForbidden:             http.StatusForbidden,
		ErrUnavailable:           http.StatusServiceUnavailable,
		errors.New("unexpected"): http.StatusInternalServerError,
	}
	for err, code := range cases {
		assert.Equal(t, code, Status(err), err.Error())
	}
}

func TestMessageHidesCause(t *testing.T) {
	err := FromStore(errors.New("dial tcp 10.0.0.1:5432: connection refused"), "worker")
	assert.Equal(t, "store failure on worker", Message(err))
	assert.Equal(t, "internal server error", Message(errors.New("boom")))
}

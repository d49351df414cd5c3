package utils

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := E(CodeNotFound, "SessionService.Get", "session not found", ErrNotFound)
	assert.Equal(t, "SessionService.Get: session not found: not found", err.Error())

	bare := E(CodeInternal, "", "boom", nil)
	assert.Equal(t, "boom", bare.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	err := E(CodeConflict, "Repo.Insert", "duplicate", ErrConflict)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestIsCode(t *testing.T) {
	err := E(CodeTimeout, "Gateway.Score", "timed out", nil)
	assert.True(t, IsCode(err, CodeTimeout))
	assert.False(t, IsCode(err, CodeUnavailable))
	assert.False(t, IsCode(errors.New("plain"), CodeTimeout))
	assert.False(t, IsCode(nil, CodeTimeout))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(E(c.code, "op", "msg", nil)), string(c.code))
	}

	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("confirm: %w", Wrap(ErrEmptyCart, cause))

	assert.True(t, errors.Is(err, ErrEmptyCart))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrAuthRequired))
	assert.Equal(t, "Cart is empty: boom", Wrap(ErrEmptyCart, cause).Error())
}

func TestSentinels(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, ErrAuthRequired.Code)
	assert.Equal(t, http.StatusForbidden, ErrForbidden.Code)
	assert.Equal(t, http.StatusBadGateway, ErrUpstream.Code)
	assert.True(t, errors.Is(Wrap(ErrUpstream, errors.New("dial")), ErrUpstream))
	assert.False(t, errors.Is(ErrInternal, ErrUpstream))
}

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-github/v55/github"
	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewInternalError("something broke", fmt.Errorf("cause"))
	assert.Equal(t, "INTERNAL_ERROR: something broke (cause)", err.Error())

	err = NewNotFoundError("run")
	assert.Equal(t, "NOT_FOUND: run not found", err.Error())
}

func TestIsNotFoundUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("failed to get run: %w", NewNotFoundError("run"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(fmt.Errorf("other")))
}

func TestIsGitFailure(t *testing.T) {
	err := NewGitError("git clone: fatal", fmt.Errorf("exit status 128"))
	assert.True(t, IsGitFailure(err))
	assert.False(t, IsGitFailure(NewNotFoundError("run")))
}

func TestIsTransientClassification(t *testing.T) {
	rateErr := &github.RateLimitError{}
	assert.True(t, IsTransient(rateErr))
	assert.True(t, IsTransient(fmt.Errorf("failed to list teams: %w", rateErr)))
	assert.True(t, IsTransient(&github.AbuseRateLimitError{}))

	serverErr := &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusBadGateway},
	}
	assert.True(t, IsTransient(serverErr))

	authErr := &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusUnauthorized},
	}
	assert.False(t, IsTransient(authErr))

	notFound := &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusNotFound},
	}
	assert.False(t, IsTransient(notFound))
	assert.True(t, IsNotFound(notFound))
}

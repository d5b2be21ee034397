package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SteveGJones/wolves-pet-store-sub001/internal/service"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"unknown identity", service.ErrIdentityNotFound, exitRejected},
		{"bad input", fmt.Errorf("%w: email is required", service.ErrInvalidInput), exitRejected},
		{"internal", service.ErrInternal, exitFailure},
		{"other", errors.New("boom"), exitFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}

func TestRun_RejectsUnknownFlag(t *testing.T) {
	assert.Equal(t, exitRejected, run([]string{"--no-such-flag"}))
}

func TestRun_ReturnsFailureWhenDatabaseUnreachable(t *testing.T) {
	t.Setenv("PETSHOP_POSTGRES_DSN", "postgres://%zz")
	assert.Equal(t, exitFailure, run([]string{"--email", "a@example.com"}))
}

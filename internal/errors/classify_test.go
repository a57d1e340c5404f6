package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type backendErr struct{ msg string }

func (e backendErr) Error() string          { return "graphql: " + e.msg }
func (e backendErr) BackendMessage() string { return e.msg }

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"Invalid credentials", KindInvalidCredentials},
		{"Failed to fetch", KindNoNetworkConnection},
		{"User already exists", KindEmailDuplicate},
		{"Cannot return null for non-nullable field Query.user.", KindNotFoundUser},
		{"Cannot return null for non-nullable field Query.cv.", KindNotFoundCv},
		{"NOT_FOUND_USER", KindNotFoundUser},
		{"NOT_FOUND_CV", KindNotFoundCv},
		{"Bad Request Exception", KindBadInputData},
		{"Unauthorized", KindUnauthorized},
		{"Loading chunk en failed.", KindLangEnLoad},
		{"Loading chunk de failed.", KindLangDeLoad},
		{"Loading chunk ru failed.", KindLangRuLoad},
		{"  Unauthorized  ", KindUnauthorized},
		{"something else entirely", KindUnexpected},
		{"", KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyMessage(tt.msg))
		})
	}
}

func TestClassify_BackendMessage(t *testing.T) {
	err := fmt.Errorf("call SIGN_IN: %w", backendErr{msg: "Invalid credentials"})

	got := Classify(err)

	assert.Equal(t, KindInvalidCredentials, got.Kind)
	assert.Equal(t, "Invalid credentials", got.Message)
	assert.ErrorIs(t, got, err)
}

func TestClassify_TransportFailures(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	assert.Equal(t, KindNoNetworkConnection, Classify(opErr).Kind)
	assert.Equal(t, KindNoNetworkConnection, Classify(fmt.Errorf("post: %w", opErr)).Kind)
	assert.Equal(t, KindNoNetworkConnection, Classify(context.DeadlineExceeded).Kind)
}

func TestClassify_Unknown(t *testing.T) {
	got := Classify(errors.New("kaboom"))
	assert.Equal(t, KindUnexpected, got.Kind)
}

func TestClassify_Idempotent(t *testing.T) {
	first := Classify(backendErr{msg: "Unauthorized"})
	second := Classify(fmt.Errorf("wrap: %w", first))

	assert.Same(t, first, second)
	assert.True(t, IsUnauthorized(second))
}

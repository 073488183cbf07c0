package middleware

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/yieldcircles/internal/auth"
)

type echo struct{}

// capture returns a UnaryFunc that records the participant ID it was called with.
func capture(got *string) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		*got = GetParticipantID(ctx)
		return connect.NewResponse(&echo{}), nil
	}
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("alice")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantID   string
	}{
		{"valid bearer", "Bearer " + token, 0, "alice"},
		{"missing header", "", connect.CodeUnauthenticated, ""},
		{"wrong scheme", "Basic " + token, connect.CodeUnauthenticated, ""},
		{"empty bearer", "Bearer ", connect.CodeUnauthenticated, ""},
		{"bad token", "Bearer nope", connect.CodeUnauthenticated, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := RequireAuth(jwtManager)(capture(&got))

			req := connect.NewRequest(&echo{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}
			_, err := handler(context.Background(), req)
			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got)
		})
	}
}

func TestRequireAuthPublicProcedure(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	// Requests built outside a handler carry an empty procedure.
	var got string
	handler := RequireAuth(jwtManager, "")(capture(&got))

	_, err := handler(context.Background(), connect.NewRequest(&echo{}))
	require.NoError(t, err)
	assert.Empty(t, got)

	req := connect.NewRequest(&echo{})
	req.Header().Set("Authorization", "Bearer nope")
	_, err = handler(context.Background(), req)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err), "a bad token is rejected even on public procedures")
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	wantErr := connect.NewError(connect.CodeFailedPrecondition, assert.AnError)
	handler := LoggingInterceptor()(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, wantErr
	})

	_, err := handler(WithParticipantID(context.Background(), "alice"), connect.NewRequest(&echo{}))
	assert.Same(t, wantErr, err)
}

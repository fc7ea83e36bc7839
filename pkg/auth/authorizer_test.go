package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
)

type stubSessionStore struct {
	record *SessionRecord
	err    error
}

func (s *stubSessionStore) FindSession(ctx context.Context, accessToken string) (*SessionRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func activeSession() *SessionRecord {
	return &SessionRecord{User: UserRecord{IsActivated: true, State: "ACTIVE"}}
}

func TestAuthorizeSuccess(t *testing.T) {
	a := NewAuthorizer(&stubSessionStore{record: activeSession()}, zap.NewNop())

	assert.NoError(t, a.Authorize(context.Background(), "token", "workspace"))
}

func TestAuthorizeFailures(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		workspace string
		store     *stubSessionStore
		want      error
	}{
		{
			name:      "missing credential",
			workspace: "workspace",
			store:     &stubSessionStore{record: activeSession()},
			want:      apperrors.ErrMissingCredential,
		},
		{
			name:  "missing workspace",
			token: "token",
			store: &stubSessionStore{record: activeSession()},
			want:  apperrors.ErrMissingWorkspace,
		},
		{
			name:      "session not found",
			token:     "token",
			workspace: "workspace",
			store:     &stubSessionStore{err: apperrors.ErrSessionNotFound},
			want:      apperrors.ErrSessionNotFound,
		},
		{
			name:      "store unavailable",
			token:     "token",
			workspace: "workspace",
			store:     &stubSessionStore{err: errors.New("connection reset")},
			want:      apperrors.ErrStoreUnavailable,
		},
		{
			name:      "user not activated",
			token:     "token",
			workspace: "workspace",
			store: &stubSessionStore{
				record: &SessionRecord{User: UserRecord{IsActivated: false}},
			},
			want: apperrors.ErrUserNotActivated,
		},
		{
			name:      "user archived",
			token:     "token",
			workspace: "workspace",
			store: &stubSessionStore{
				record: &SessionRecord{User: UserRecord{IsActivated: true, State: "ARCHIVED"}},
			},
			want: apperrors.ErrUserArchived,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuthorizer(tt.store, zap.NewNop())
			err := a.Authorize(context.Background(), tt.token, tt.workspace)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

// Package auth validates chat-connection credentials against the session
// store. Authorization happens once, at connection time; a failed check
// means no chat session state is ever created.
package auth

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
)

// SessionRecord is the slice of a stored login session the authorizer needs.
type SessionRecord struct {
	User UserRecord `bson:"user"`
}

// UserRecord carries the account-state fields checked at connect time.
type UserRecord struct {
	IsActivated bool   `bson:"is_activated"`
	State       string `bson:"state"`
}

// userStateArchived marks accounts that may no longer connect.
const userStateArchived = "ARCHIVED"

// SessionStore looks up login sessions by access token.
type SessionStore interface {
	FindSession(ctx context.Context, accessToken string) (*SessionRecord, error)
}

// Authorizer validates an access token plus workspace scope before a chat
// connection is allowed to create session state.
type Authorizer struct {
	store  SessionStore
	logger *zap.Logger
}

// NewAuthorizer creates an Authorizer over a session store.
func NewAuthorizer(store SessionStore, logger *zap.Logger) *Authorizer {
	return &Authorizer{store: store, logger: logger}
}

// Authorize checks the credential and workspace binding for a new
// connection. Every failure maps to one of the package's sentinel errors;
// callers treat any of them as connection-level unauthorized.
func (a *Authorizer) Authorize(ctx context.Context, accessToken, workspaceID string) error {
	if accessToken == "" {
		return apperrors.ErrMissingCredential
	}
	if workspaceID == "" {
		return apperrors.ErrMissingWorkspace
	}

	session, err := a.store.FindSession(ctx, accessToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return apperrors.ErrSessionNotFound
		}
		a.logger.Error("session lookup failed", zap.Error(err))
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	if !session.User.IsActivated {
		return apperrors.ErrUserNotActivated
	}
	if session.User.State == userStateArchived {
		return apperrors.ErrUserArchived
	}
	return nil
}

// MongoSessionStore reads login sessions from the document store's sessions
// collection, keyed by access token.
type MongoSessionStore struct {
	db *mongo.Database
}

// NewMongoSessionStore creates a session store over a connected database.
func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{db: db}
}

// FindSession looks up one session document by its token id.
func (s *MongoSessionStore) FindSession(ctx context.Context, accessToken string) (*SessionRecord, error) {
	var record SessionRecord
	err := s.db.Collection("sessions").FindOne(ctx, bson.M{"_id": accessToken}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	return &record, nil
}

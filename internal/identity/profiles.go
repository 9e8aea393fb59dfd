package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection  = "users"
	displayNameField = "displayName"
)

var (
	// ErrProfileNotFound is returned when the user has no profile document.
	ErrProfileNotFound = errors.New("identity: profile not found")
	// ErrNoDisplayName is returned when the profile has no usable display name.
	ErrNoDisplayName = errors.New("identity: profile has no display name")
)

type documentGetter func(ctx context.Context, uid string) (map[string]any, error)

// FirestoreProfiles reads display names from users/{uid}.
type FirestoreProfiles struct {
	get documentGetter
}

// NewFirestoreProfiles wraps client. The client stays owned by the caller.
func NewFirestoreProfiles(client *firestore.Client) *FirestoreProfiles {
	return &FirestoreProfiles{
		get: func(ctx context.Context, uid string) (map[string]any, error) {
			snap, err := client.Collection(usersCollection).Doc(uid).Get(ctx)
			if err != nil {
				return nil, err
			}
			return snap.Data(), nil
		},
	}
}

// DisplayName returns the display name stored for uid.
func (p *FirestoreProfiles) DisplayName(ctx context.Context, uid string) (string, error) {
	if strings.TrimSpace(uid) == "" {
		return "", ErrProfileNotFound
	}
	data, err := p.get(ctx, uid)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", ErrProfileNotFound
		}
		return "", fmt.Errorf("get profile %s: %w", uid, err)
	}
	name, _ := data[displayNameField].(string)
	if name = strings.TrimSpace(name); name == "" {
		return "", ErrNoDisplayName
	}
	return name, nil
}

package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gviz-app/gviz-api/internal/domain"
)

// Store implements domain.UserStore and domain.NotificationStore on top of
// Firestore.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) usersCol() *firestore.CollectionRef {
	return s.client.Collection("users")
}

func (s *Store) userDoc(id domain.UserID) *firestore.DocumentRef {
	return s.usersCol().Doc(string(id))
}

func (s *Store) notificationsCol() *firestore.CollectionRef {
	return s.client.Collection("notifications")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type userDoc struct {
	Email        string    `firestore:"email"`
	Name         string    `firestore:"name"`
	PasswordHash string    `firestore:"password_hash"`
	AvatarURL    string    `firestore:"avatar"`
	Role         string    `firestore:"role"`
	Skills       []string  `firestore:"skills"`
	JobInterests []string  `firestore:"job_interests"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

type notificationDoc struct {
	UserID    string    `firestore:"user_id"`
	Title     string    `firestore:"title"`
	Message   string    `firestore:"message"`
	Read      bool      `firestore:"is_read"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (d userDoc) toDomain(id domain.UserID) *domain.User {
	return &domain.User{
		ID:           id,
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		AvatarURL:    d.AvatarURL,
		Role:         d.Role,
		Skills:       d.Skills,
		JobInterests: d.JobInterests,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ─────────────────────────────────────────
// UserStore implementation
// ─────────────────────────────────────────

func (s *Store) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if _, err := s.GetByEmail(ctx, user.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if err != domain.ErrUserNotFound {
		return nil, err
	}

	id := user.ID
	if id == "" {
		id = domain.UserID(uuid.NewString())
	}
	now := time.Now()

	doc := userDoc{
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		AvatarURL:    user.AvatarURL,
		Role:         user.Role,
		Skills:       user.Skills,
		JobInterests: user.JobInterests,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.userDoc(id).Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("firestore Create user: %w", err)
	}

	return doc.toDomain(id), nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	iter := s.usersCol().Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore GetByEmail: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetByEmail decode: %w", err)
	}
	return doc.toDomain(domain.UserID(snap.Ref.ID)), nil
}

func (s *Store) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	snap, err := s.userDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("firestore GetByID: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetByID decode: %w", err)
	}
	return doc.toDomain(id), nil
}

func (s *Store) Update(ctx context.Context, id domain.UserID, update domain.UserUpdate) (*domain.User, error) {
	fields := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.AvatarURL != nil {
		fields["avatar"] = *update.AvatarURL
	}
	if update.Skills != nil {
		fields["skills"] = *update.Skills
	}
	if update.JobInterests != nil {
		fields["job_interests"] = *update.JobInterests
	}

	if _, err := s.userDoc(id).Set(ctx, fields, firestore.MergeAll); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("firestore Update user: %w", err)
	}

	return s.GetByID(ctx, id)
}

// ─────────────────────────────────────────
// NotificationStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendNotification(ctx context.Context, n *domain.Notification) error {
	id := n.ID
	if id == "" {
		id = domain.NotificationID(uuid.NewString())
	}
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	doc := notificationDoc{
		UserID:    string(n.UserID),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: createdAt,
	}

	if _, err := s.notificationsCol().Doc(string(id)).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendNotification: %w", err)
	}
	return nil
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Notification, error) {
	q := s.notificationsCol().
		Where("user_id", "==", string(userID)).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Notification
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListNotificationsByUser: %w", err)
		}

		var doc notificationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode notificationDoc: %w", err)
		}

		out = append(out, &domain.Notification{
			ID:        domain.NotificationID(snap.Ref.ID),
			UserID:    domain.UserID(doc.UserID),
			Title:     doc.Title,
			Message:   doc.Message,
			Read:      doc.Read,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}

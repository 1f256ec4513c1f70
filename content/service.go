package content

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tmcampion/go-content-auth/authz"
	apperrors "github.com/tmcampion/go-content-auth/internal/errors"
	"github.com/tmcampion/go-content-auth/store"
)

// Store keys. Each item is a flat hash with one JSON-encoded field for
// the role set; indexSetKey tracks all item ids so listing is a bounded
// membership read rather than a keyspace scan.
const (
	contentKeyPrefix = "content:"
	indexSetKey      = "contents:index"
	requiredField    = "required_roles"
)

// ErrEmptyRequiredRoles rejects a draft or patch that would leave an
// item with no gating roles.
var ErrEmptyRequiredRoles = errors.New("content must declare at least one required role")

type Service struct {
	kv      store.Store
	nowFunc func() time.Time
}

type ServiceOption func(*Service)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(kv store.Store, options ...ServiceOption) *Service {
	s := &Service{kv: kv, nowFunc: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Create persists a new item. Ids are random UUIDs, collision-resistant
// under concurrent creation. A draft with no required roles is rejected:
// every item must declare at least one gating role.
func (s *Service) Create(ctx context.Context, draft Draft) (*Content, error) {
	if len(draft.RequiredRoles) == 0 {
		return nil, ErrEmptyRequiredRoles
	}

	now := s.nowFunc().UTC()
	item := &Content{
		ID:            uuid.NewString(),
		Title:         draft.Title,
		Description:   draft.Description,
		Body:          draft.Body,
		RequiredRoles: draft.RequiredRoles,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.write(ctx, item); err != nil {
		return nil, err
	}
	if _, err := s.kv.SAdd(ctx, indexSetKey, item.ID); err != nil {
		return nil, errors.Wrap(err, "content.Create index")
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Content, error) {
	fields, err := s.kv.HGetAll(ctx, contentKeyPrefix+id)
	if err != nil {
		return nil, errors.Wrap(err, "content.Get")
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return decode(fields)
}

// Update applies a partial patch field-by-field against the stored
// record and refreshes UpdatedAt.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Content, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Body != nil {
		item.Body = *patch.Body
	}
	if patch.RequiredRoles != nil {
		if len(*patch.RequiredRoles) == 0 {
			return nil, ErrEmptyRequiredRoles
		}
		item.RequiredRoles = *patch.RequiredRoles
	}
	item.UpdatedAt = s.nowFunc().UTC()

	if err := s.write(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.kv.Delete(ctx, contentKeyPrefix+id)
	if err != nil {
		return errors.Wrap(err, "content.Delete")
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	if err := s.kv.SRem(ctx, indexSetKey, id); err != nil {
		return errors.Wrap(err, "content.Delete index")
	}
	return nil
}

// List returns every stored item. Items deleted between the index read
// and the per-id fetch are skipped.
func (s *Service) List(ctx context.Context) ([]*Content, error) {
	ids, err := s.kv.SMembers(ctx, indexSetKey)
	if err != nil {
		return nil, errors.Wrap(err, "content.List index")
	}

	items := make([]*Content, 0, len(ids))
	for _, id := range ids {
		item, err := s.Get(ctx, id)
		if apperrors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ListByRoles returns the items whose required roles intersect the
// caller's role set.
func (s *Service) ListByRoles(ctx context.Context, callerRoles []string) ([]*Content, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	accessible := make([]*Content, 0, len(all))
	for _, item := range all {
		if authz.CanAccess(callerRoles, item.RequiredRoles) {
			accessible = append(accessible, item)
		}
	}
	return accessible, nil
}

func (s *Service) write(ctx context.Context, item *Content) error {
	encoded, err := json.Marshal(item.RequiredRoles)
	if err != nil {
		return errors.Wrap(err, "content encode roles")
	}
	fields := map[string]string{
		"id":          item.ID,
		"title":       item.Title,
		"description": item.Description,
		"body":        item.Body,
		requiredField: string(encoded),
		"created_at":  item.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  item.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := s.kv.HSet(ctx, contentKeyPrefix+item.ID, fields); err != nil {
		return errors.Wrap(err, "content write record")
	}
	return nil
}

func decode(fields map[string]string) (*Content, error) {
	item := &Content{
		ID:          fields["id"],
		Title:       fields["title"],
		Description: fields["description"],
		Body:        fields["body"],
	}
	if raw := fields[requiredField]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &item.RequiredRoles); err != nil {
			return nil, errors.Wrap(err, "decode content roles")
		}
	}
	var err error
	if item.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, errors.Wrap(err, "decode content created_at")
	}
	if item.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return nil, errors.Wrap(err, "decode content updated_at")
	}
	return item, nil
}

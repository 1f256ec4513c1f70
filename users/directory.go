package users

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	apperrors "github.com/tmcampion/go-content-auth/internal/errors"
	"github.com/tmcampion/go-content-auth/store"
)

// Store keys. Each user is a flat hash under userKeyPrefix; the roles
// field is the one structured (JSON-encoded) value in it. The email
// index maps email to id, and emailSetKey is the uniqueness index that
// registration reserves atomically.
const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "user:email:"
	emailSetKey    = "users:emails"
	rolesField     = "roles"
	isActiveField  = "is_active"
	isSuperuser    = "is_superuser"
	passwordField  = "hashed_password"
)

// Directory owns the User record: registration, lookup, and role
// updates. No other component writes user state.
type Directory struct {
	kv     store.Store
	hasher PasswordHasher
}

func NewDirectory(kv store.Store, hasher PasswordHasher) *Directory {
	return &Directory{kv: kv, hasher: hasher}
}

// Register creates a new active, non-superuser account with the default
// role set. The SAdd on the uniqueness index is the serialization
// point: under concurrent duplicate registrations exactly one call
// observes the member as added and proceeds to write the record.
func (d *Directory) Register(ctx context.Context, email, username, password string) (*User, error) {
	added, err := d.kv.SAdd(ctx, emailSetKey, email)
	if err != nil {
		return nil, errors.Wrap(err, "Directory.Register reserve email")
	}
	if added == 0 {
		return nil, apperrors.ErrEmailTaken
	}

	hash, err := d.hasher.Hash(password)
	if err != nil {
		d.releaseEmail(ctx, email)
		return nil, errors.Wrap(err, "Directory.Register hash password")
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  false,
		Roles:        []string{RoleUser},
	}

	if err := d.writeUser(ctx, user); err != nil {
		d.releaseEmail(ctx, email)
		return nil, err
	}
	if err := d.kv.Set(ctx, emailKeyPrefix+email, user.ID, 0); err != nil {
		d.releaseEmail(ctx, email)
		return nil, errors.Wrap(err, "Directory.Register index email")
	}
	return user, nil
}

// releaseEmail undoes the uniqueness reservation when a registration
// fails after reserving it, so a transient store error does not leave
// the address permanently claimed with no record behind it. Best
// effort: the registration has already failed, and a removal error
// gives the caller nothing more actionable than the original one.
func (d *Directory) releaseEmail(ctx context.Context, email string) {
	_ = d.kv.SRem(ctx, emailSetKey, email)
}

func (d *Directory) GetByEmail(ctx context.Context, email string) (*User, error) {
	id, ok, err := d.kv.Get(ctx, emailKeyPrefix+email)
	if err != nil {
		return nil, errors.Wrap(err, "Directory.GetByEmail index lookup")
	}
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return d.GetByID(ctx, id)
}

func (d *Directory) GetByID(ctx context.Context, id string) (*User, error) {
	fields, err := d.kv.HGetAll(ctx, userKeyPrefix+id)
	if err != nil {
		return nil, errors.Wrap(err, "Directory.GetByID")
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	return decodeUser(fields)
}

// UpdateRoles replaces the user's role set and returns the updated
// record. Roles are only mutable through this operation.
func (d *Directory) UpdateRoles(ctx context.Context, userID string, roles []string) (*User, error) {
	user, err := d.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []string{}
	}

	encoded, err := json.Marshal(roles)
	if err != nil {
		return nil, errors.Wrap(err, "Directory.UpdateRoles encode roles")
	}
	if err := d.kv.HSet(ctx, userKeyPrefix+userID, map[string]string{rolesField: string(encoded)}); err != nil {
		return nil, errors.Wrap(err, "Directory.UpdateRoles")
	}

	user.Roles = roles
	return user, nil
}

// SetActive toggles the account's active flag. Inactive accounts cannot
// log in; already-issued tokens are unaffected until they expire or are
// revoked.
func (d *Directory) SetActive(ctx context.Context, userID string, active bool) (*User, error) {
	user, err := d.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := d.kv.HSet(ctx, userKeyPrefix+userID, map[string]string{isActiveField: strconv.FormatBool(active)}); err != nil {
		return nil, errors.Wrap(err, "Directory.SetActive")
	}
	user.IsActive = active
	return user, nil
}

// VerifyPassword checks a plaintext password against the user's stored
// hash via the hashing capability.
func (d *Directory) VerifyPassword(u *User, password string) bool {
	return d.hasher.Verify(password, u.PasswordHash)
}

func (d *Directory) writeUser(ctx context.Context, u *User) error {
	encoded, err := json.Marshal(u.Roles)
	if err != nil {
		return errors.Wrap(err, "Directory encode roles")
	}
	fields := map[string]string{
		"id":          u.ID,
		"email":       u.Email,
		"username":    u.Username,
		passwordField: u.PasswordHash,
		isActiveField: strconv.FormatBool(u.IsActive),
		isSuperuser:   strconv.FormatBool(u.IsSuperuser),
		rolesField:    string(encoded),
	}
	if err := d.kv.HSet(ctx, userKeyPrefix+u.ID, fields); err != nil {
		return errors.Wrap(err, "Directory write user record")
	}
	return nil
}

func decodeUser(fields map[string]string) (*User, error) {
	u := &User{
		ID:           fields["id"],
		Email:        fields["email"],
		Username:     fields["username"],
		PasswordHash: fields[passwordField],
	}
	u.IsActive, _ = strconv.ParseBool(fields[isActiveField])
	u.IsSuperuser, _ = strconv.ParseBool(fields[isSuperuser])
	if raw := fields[rolesField]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &u.Roles); err != nil {
			return nil, errors.Wrap(err, "decode user roles")
		}
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return u, nil
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/contacthub/contacthub/internal/domain/user"
	"github.com/contacthub/contacthub/internal/observability"
)

const userKeyPrefix = "user:id:"

// cachedUser is the stored projection. The domain struct hides Disabled
// (and the password hash) from API JSON, so marshaling user.User directly
// would silently drop the disabled flag; the cache keeps its own record.
// The hash is left out of redis on purpose.
type cachedUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	Verified  bool      `json:"verified"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func encodeUser(u user.User) ([]byte, error) {
	return json.Marshal(cachedUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		Avatar:    u.Avatar,
		Verified:  u.Verified,
		Disabled:  u.Disabled,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}

func decodeUser(data []byte) (user.User, error) {
	var cu cachedUser

	if err := json.Unmarshal(data, &cu); err != nil {
		return user.User{}, err
	}

	return user.User{
		ID:        cu.ID,
		Email:     cu.Email,
		Username:  cu.Username,
		Role:      cu.Role,
		Avatar:    cu.Avatar,
		Verified:  cu.Verified,
		Disabled:  cu.Disabled,
		CreatedAt: cu.CreatedAt,
		UpdatedAt: cu.UpdatedAt,
	}, nil
}

// UserCache is a cache-aside projection of user records keyed by user ID.
// Every failure is treated as a miss: the system must behave identically
// with the cache empty, down, or absent (a nil *UserCache is valid).
type UserCache struct {
	client *Client
	prom   *observability.Prom
}

func NewUserCache(client *Client, prom *observability.Prom) *UserCache {
	return &UserCache{client: client, prom: prom}
}

func (uc *UserCache) observe(hit bool) {
	if uc != nil && uc.prom != nil {
		uc.prom.ObserveCache("user", hit)
	}
}

func (uc *UserCache) Get(ctx context.Context, userID string) (user.User, bool) {
	if uc == nil || uc.client == nil {
		return user.User{}, false
	}

	data, err := uc.client.redisdb.Get(ctx, userKeyPrefix+userID).Bytes()
	if err != nil {
		uc.observe(false)
		return user.User{}, false
	}

	u, err := decodeUser(data)
	if err != nil {
		// corrupted entry: drop it and treat as a miss
		uc.Invalidate(ctx, userID)
		uc.observe(false)
		return user.User{}, false
	}

	uc.observe(true)
	return u, true
}

// Set stores the user with the given ttl. Entries must never outlive the
// credential that resolved them, so callers pass a ttl already clamped to
// the token's remaining lifetime. Non-positive ttls are not stored.
func (uc *UserCache) Set(ctx context.Context, u user.User, ttl time.Duration) {
	if uc == nil || uc.client == nil || ttl <= 0 {
		return
	}

	data, err := encodeUser(u)
	if err != nil {
		return
	}

	_ = uc.client.redisdb.Set(ctx, userKeyPrefix+u.ID, data, ttl).Err()
}

func (uc *UserCache) Invalidate(ctx context.Context, userID string) {
	if uc == nil || uc.client == nil {
		return
	}

	_ = uc.client.redisdb.Del(ctx, userKeyPrefix+userID).Err()
}

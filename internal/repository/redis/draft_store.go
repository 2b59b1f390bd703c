// internal/repository/redis/draft_store.go
package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hellofixo-service/internal/domain/booking"
	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	DraftTTL      = 2 * time.Hour
	submitLockTTL = 30 * time.Second
)

// DraftStore keeps in-progress booking drafts in Redis.
type DraftStore struct {
	client redis.Cmdable
}

func NewDraftStore(client redis.Cmdable) *DraftStore {
	return &DraftStore{client: client}
}

// saveDraft writes ARGV[2] only when the stored revision equals ARGV[1].
// A missing key counts as revision 0.
var saveDraft = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
local rev = 0
if cur then
	local ok, doc = pcall(cjson.decode, cur)
	if ok and type(doc) == 'table' and doc.rev then
		rev = tonumber(doc.rev)
	end
end
if rev ~= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Save writes the draft, bumps d.Rev and restarts the TTL. It returns
// booking.ErrStaleDraft when another save landed since d was loaded.
func (s *DraftStore) Save(ctx context.Context, d *booking.Draft) error {
	base := d.Rev
	d.Rev = base + 1
	data, err := json.Marshal(d)
	if err != nil {
		d.Rev = base
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	saved, err := saveDraft.Run(ctx, s.client, []string{draftKey(d.ID)}, base, data, DraftTTL.Milliseconds()).Int()
	if err != nil {
		d.Rev = base
		return fmt.Errorf("failed to save draft: %w", err)
	}
	if saved == 0 {
		d.Rev = base
		return fmt.Errorf("draft %s at rev %d: %w", d.ID, base, booking.ErrStaleDraft)
	}
	return nil
}

// Load returns xerrors.ErrNotFound for missing or expired drafts.
func (s *DraftStore) Load(ctx context.Context, id string) (*booking.Draft, error) {
	data, err := s.client.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("draft %s: %w", id, xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var d booking.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &d, nil
}

func (s *DraftStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, draftKey(id)).Err()
}

// AcquireSubmitLock reports false when another submission holds the lock.
func (s *DraftStore) AcquireSubmitLock(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(id), time.Now().UTC().Format(time.RFC3339Nano), submitLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire submit lock: %w", err)
	}
	return ok, nil
}

func (s *DraftStore) ReleaseSubmitLock(ctx context.Context, id string) error {
	return s.client.Del(ctx, lockKey(id)).Err()
}

func draftKey(id string) string {
	return fmt.Sprintf("booking:draft:%s", id)
}

func lockKey(id string) string {
	return fmt.Sprintf("booking:submit-lock:%s", id)
}

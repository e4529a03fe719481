package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"user-service/internal/domain/user"
	apperrors "user-service/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	errUserNotFound       = "user not found"
	errEmailTaken         = "user with this email already exists"
	errFailedSaveUserFmt  = "failed to save user: %w"
	errFailedGetUserFmt   = "failed to get user: %w"
	errFailedListUsersFmt = "failed to list users: %w"
	errFailedDecodeFmt    = "failed to decode user record: %w"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, input user.CreateUserInput) (*user.User, error) {
	id, err := r.db.Client.Incr(ctx, r.db.userSeqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf(errFailedSaveUserFmt, err)
	}

	// The email index key doubles as the uniqueness guard: SetNX loses the
	// race when another record already claimed the address.
	ok, err := r.db.Client.SetNX(ctx, r.db.userEmailKey(input.Email), id, 0).Result()
	if err != nil {
		return nil, fmt.Errorf(errFailedSaveUserFmt, err)
	}
	if !ok {
		return nil, apperrors.Conflict(errEmailTaken)
	}

	u := &user.User{
		ID:           id,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Roles:        input.Roles,
	}

	if err := r.save(ctx, u); err != nil {
		r.db.Client.Del(ctx, r.db.userEmailKey(input.Email))
		return nil, err
	}

	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	data, err := r.db.Client.Get(ctx, r.db.userKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, fmt.Errorf(errFailedGetUserFmt, err)
	}

	return decodeUser([]byte(data))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	idStr, err := r.db.Client.Get(ctx, r.db.userEmailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, fmt.Errorf(errFailedGetUserFmt, err)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf(errFailedGetUserFmt, err)
	}

	return r.GetByID(ctx, id)
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	ids, err := r.db.Client.SMembers(ctx, r.db.userSetKey()).Result()
	if err != nil {
		return nil, fmt.Errorf(errFailedListUsersFmt, err)
	}

	if len(ids) == 0 {
		return []*user.User{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, idStr := range ids {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, r.db.userKey(id))
	}

	values, err := r.db.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf(errFailedListUsersFmt, err)
	}

	users := make([]*user.User, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			// Record removed between SMembers and MGet.
			continue
		}
		u, err := decodeUser([]byte(data))
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, input user.UpdateUserInput) (*user.User, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != existing.Email {
		ok, err := r.db.Client.SetNX(ctx, r.db.userEmailKey(input.Email), id, 0).Result()
		if err != nil {
			return nil, fmt.Errorf(errFailedSaveUserFmt, err)
		}
		if !ok {
			return nil, apperrors.Conflict(errEmailTaken)
		}
		if err := r.db.Client.Del(ctx, r.db.userEmailKey(existing.Email)).Err(); err != nil {
			return nil, fmt.Errorf(errFailedSaveUserFmt, err)
		}
	}

	u := &user.User{
		ID:           id,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Roles:        input.Roles,
	}

	if err := r.save(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.db.Client.TxPipeline()
	pipe.Del(ctx, r.db.userKey(id))
	pipe.Del(ctx, r.db.userEmailKey(existing.Email))
	pipe.SRem(ctx, r.db.userSetKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf(errFailedSaveUserFmt, err)
	}

	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.db.Client.SCard(ctx, r.db.userSetKey()).Result()
	if err != nil {
		return 0, fmt.Errorf(errFailedListUsersFmt, err)
	}
	return count, nil
}

func (r *UserRepository) save(ctx context.Context, u *user.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf(errFailedSaveUserFmt, err)
	}

	pipe := r.db.Client.TxPipeline()
	pipe.Set(ctx, r.db.userKey(u.ID), data, 0)
	pipe.SAdd(ctx, r.db.userSetKey(), u.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf(errFailedSaveUserFmt, err)
	}

	return nil
}

func decodeUser(data []byte) (*user.User, error) {
	u := &user.User{}
	if err := json.Unmarshal(data, u); err != nil {
		return nil, fmt.Errorf(errFailedDecodeFmt, err)
	}
	return u, nil
}

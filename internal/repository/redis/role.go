package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"user-service/internal/domain/role"
	apperrors "user-service/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	errRoleNotFound      = "role not found"
	errRoleNameTaken     = "role with this name already exists"
	errFailedSaveRoleFmt = "failed to save role: %w"
	errFailedGetRoleFmt  = "failed to get role: %w"
)

type RoleRepository struct {
	db *DB
}

func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, name string) (*role.Role, error) {
	id, err := r.db.Client.Incr(ctx, r.db.roleSeqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf(errFailedSaveRoleFmt, err)
	}

	ok, err := r.db.Client.SetNX(ctx, r.db.roleNameKey(name), id, 0).Result()
	if err != nil {
		return nil, fmt.Errorf(errFailedSaveRoleFmt, err)
	}
	if !ok {
		return nil, apperrors.Conflict(errRoleNameTaken)
	}

	rec := &role.Role{ID: id, Name: name}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf(errFailedSaveRoleFmt, err)
	}

	pipe := r.db.Client.TxPipeline()
	pipe.Set(ctx, r.db.roleKey(id), data, 0)
	pipe.SAdd(ctx, r.db.roleSetKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		r.db.Client.Del(ctx, r.db.roleNameKey(name))
		return nil, fmt.Errorf(errFailedSaveRoleFmt, err)
	}

	return rec, nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*role.Role, error) {
	data, err := r.db.Client.Get(ctx, r.db.roleKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound(errRoleNotFound)
		}
		return nil, fmt.Errorf(errFailedGetRoleFmt, err)
	}

	rec := &role.Role{}
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return nil, fmt.Errorf(errFailedGetRoleFmt, err)
	}

	return rec, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*role.Role, error) {
	idStr, err := r.db.Client.Get(ctx, r.db.roleNameKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound(errRoleNotFound)
		}
		return nil, fmt.Errorf(errFailedGetRoleFmt, err)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf(errFailedGetRoleFmt, err)
	}

	return r.GetByID(ctx, id)
}

func (r *RoleRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.db.Client.SCard(ctx, r.db.roleSetKey()).Result()
	if err != nil {
		return 0, fmt.Errorf(errFailedGetRoleFmt, err)
	}
	return count, nil
}

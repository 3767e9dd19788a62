package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/membergate/internal/model"
)

// MemoryUserRepo はテスト用のインメモリユーザーリポジトリ。
// テストごとに独立したストアを構築でき、外部DBを必要としない。
// PostgresUserRepoと同じくemailの一意性を保証する。
type MemoryUserRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*model.User
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		nextID: 1,
		byID:   make(map[int64]*model.User),
	}
}

// Create はユーザーを作成し、採番したIDをuser.IDに設定する。
// emailが既に存在する場合はDuplicateEmailエラーを返す。
func (r *MemoryUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Email == user.Email {
			return model.NewDuplicateEmailError()
		}
	}

	user.ID = r.nextID
	r.nextID++

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	stored := *user
	r.byID[user.ID] = &stored

	return nil
}

// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	found := *u
	return &found, nil
}

// compile-time interface check
var _ UserRepository = (*MemoryUserRepo)(nil)

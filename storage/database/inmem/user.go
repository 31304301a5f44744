package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email && !containsStr(excludedIDs, usr.ID) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.table {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	if usr.ID == "" {
		usr.ID = newID()
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0, len(repo.db.table))
	for _, usr := range repo.query() {
		if filter != nil && !filter.IsEmpty() {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(usr.Name), search) && !strings.Contains(usr.Email, search) {
					continue
				}
			}
			if len(filter.Types) > 0 && !containsStr(filter.Types, usr.Type) {
				continue
			}
			if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
				continue
			}
		}
		users = append(users, usr)
	}

	sortUsers(users, ordering)
	return users, nil
}

func sortUsers(users []user.User, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	cmp := func(a, b user.User, field string) int {
		switch field {
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "email":
			return strings.Compare(a.Email, b.Email)
		case "type":
			return strings.Compare(a.Type, b.Type)
		case "is_active":
			return compareBool(a.IsActive, b.IsActive)
		case "last_login":
			return compareTime(a.LastLogin, b.LastLogin)
		default:
			return compareTime(a.CreatedAt, b.CreatedAt)
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(users[i], users[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return users[i].ID < users[j].ID
	})
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.table {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			deleted++
		}
	}
	return deleted, nil
}

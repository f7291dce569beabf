package user

import (
	"context"
	"slices"
	"sync"
)

type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int) (User, error)
	Create(ctx context.Context, user User) (User, error)
	// Update replaces every attribute except the id and the profile picture.
	Update(ctx context.Context, id int, user User) (User, error)
	// Delete does not report a missing id.
	Delete(ctx context.Context, id int) error
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	nextID int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		nextID: 1,
	}

	maxID := 0
	for _, user := range seed {
		repo.users = append(repo.users, clone(user))
		if user.ID > maxID {
			maxID = user.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) List(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, clone(user))
	}
	return users, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return clone(r.users[i]), nil
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, 0) {
		return User{}, ErrEmailExists
	}

	user = clone(user)
	user.ID = r.nextID
	r.nextID++

	r.users = append(r.users, user)
	return clone(user), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id int, userUpdate User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return User{}, ErrNotFound
	}
	if r.emailTaken(userUpdate.Email, id) {
		return User{}, ErrEmailExists
	}

	user := r.users[i]
	user.Name = userUpdate.Name
	user.Age = userUpdate.Age
	user.Email = userUpdate.Email
	user.DOB = userUpdate.DOB
	user.Gender = userUpdate.Gender
	user.Skills = slices.Clone(userUpdate.Skills)
	user.Bio = userUpdate.Bio
	r.users[i] = user
	return clone(user), nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(id); i >= 0 {
		r.users = append(r.users[:i], r.users[i+1:]...)
	}
	return nil
}

func (r *InMemoryRepository) indexOf(id int) int {
	return slices.IndexFunc(r.users, func(u User) bool { return u.ID == id })
}

func (r *InMemoryRepository) emailTaken(email string, exceptID int) bool {
	return slices.ContainsFunc(r.users, func(u User) bool {
		return u.Email == email && u.ID != exceptID
	})
}

func clone(u User) User {
	u.Skills = slices.Clone(u.Skills)
	if u.Skills == nil {
		u.Skills = []string{}
	}
	if u.ProfilePic != nil {
		pic := *u.ProfilePic
		u.ProfilePic = &pic
	}
	return u
}

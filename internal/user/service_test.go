package user

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUpdateUserNormalizesFields(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil, nil)
	owner := repo.add("alice", "alice@x.com")

	username := "  alice2 "
	email := " Alice2@X.com "
	bio := "hello"
	updated, err := service.UpdateUser(context.Background(), owner.ID, owner.ID, ProfileUpdate{
		Username: &username,
		Email:    &email,
		Bio:      &bio,
	})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if updated.Username != "alice2" || updated.Email != "alice2@x.com" {
		t.Fatalf("expected normalized identity, got %q %q", updated.Username, updated.Email)
	}
	if updated.Bio == nil || *updated.Bio != "hello" {
		t.Fatalf("expected bio to be stored")
	}
}

func TestUpdateUserRejectsOtherAccounts(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil, nil)
	owner := repo.add("alice", "alice@x.com")

	bio := "hijacked"
	if _, err := service.UpdateUser(context.Background(), uuid.New(), owner.ID, ProfileUpdate{Bio: &bio}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateUserValidation(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil, nil)
	owner := repo.add("alice", "alice@x.com")

	short := "ab"
	badEmail := "not-an-email"
	cases := []ProfileUpdate{
		{Username: &short},
		{Email: &badEmail},
	}
	for _, update := range cases {
		if _, err := service.UpdateUser(context.Background(), owner.ID, owner.ID, update); !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("expected ErrInvalidProfile, got %v", err)
		}
	}
}

func TestUpdateUserConflict(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil, nil)
	owner := repo.add("alice", "alice@x.com")
	repo.add("bob", "bob@x.com")

	taken := "bob"
	if _, err := service.UpdateUser(context.Background(), owner.ID, owner.ID, ProfileUpdate{Username: &taken}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestDeleteUserPurgesAttachments(t *testing.T) {
	repo := newFakeRepo()
	purger := &fakePurger{}
	service := NewService(repo, purger, nil)
	owner := repo.add("alice", "alice@x.com")

	if _, err := service.DeleteUser(context.Background(), owner.ID, owner.ID); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if len(purger.authors) != 1 || purger.authors[0] != owner.ID {
		t.Fatalf("expected attachments of %s to be purged, got %v", owner.ID, purger.authors)
	}
	if _, err := repo.Get(context.Background(), owner.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user to be removed, got %v", err)
	}
}

func TestDeleteUserMissingAccountSkipsPurge(t *testing.T) {
	repo := newFakeRepo()
	purger := &fakePurger{}
	service := NewService(repo, purger, nil)

	id := uuid.New()
	if _, err := service.DeleteUser(context.Background(), id, id); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(purger.authors) != 0 {
		t.Fatalf("expected no purge for a missing account")
	}
}

// --- fakes ---

type fakeRepo struct {
	profiles map[uuid.UUID]Profile
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: make(map[uuid.UUID]Profile)}
}

func (f *fakeRepo) add(username, email string) Profile {
	now := time.Now()
	p := Profile{ID: uuid.New(), Username: username, Email: email, CreatedAt: now, UpdatedAt: now}
	f.profiles[p.ID] = p
	return p
}

func (f *fakeRepo) List(ctx context.Context) ([]Profile, error) {
	var list []Profile
	for _, p := range f.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list, nil
}

func (f *fakeRepo) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return Profile{}, ErrUserNotFound
	}
	return p, nil
}

func (f *fakeRepo) Update(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return Profile{}, ErrUserNotFound
	}
	for id, other := range f.profiles {
		if id == userID {
			continue
		}
		if (update.Username != nil && *update.Username == other.Username) || (update.Email != nil && *update.Email == other.Email) {
			return Profile{}, ErrUserExists
		}
	}
	if update.Username != nil {
		p.Username = *update.Username
	}
	if update.Email != nil {
		p.Email = *update.Email
	}
	if update.FirstName != nil {
		p.FirstName = update.FirstName
	}
	if update.LastName != nil {
		p.LastName = update.LastName
	}
	if update.Bio != nil {
		p.Bio = update.Bio
	}
	p.UpdatedAt = time.Now()
	f.profiles[userID] = p
	return p, nil
}

func (f *fakeRepo) Delete(ctx context.Context, userID uuid.UUID) (Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return Profile{}, ErrUserNotFound
	}
	delete(f.profiles, userID)
	return p, nil
}

type fakePurger struct {
	authors []uuid.UUID
}

func (f *fakePurger) PurgeForAuthor(ctx context.Context, authorID uuid.UUID) error {
	f.authors = append(f.authors, authorID)
	return nil
}

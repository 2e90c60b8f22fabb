package post

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/abduss/postboard/internal/user"
	"github.com/google/uuid"
)

func TestCreatePostRequiresTitle(t *testing.T) {
	service := NewService(newFakeRepo(), nil)

	if _, err := service.CreatePost(context.Background(), uuid.New(), "   ", "body"); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestListPostsFiltersByAuthor(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)
	alice, bob := uuid.New(), uuid.New()

	for _, author := range []uuid.UUID{alice, bob, alice} {
		if _, err := service.CreatePost(context.Background(), author, "hello", ""); err != nil {
			t.Fatalf("CreatePost returned error: %v", err)
		}
	}

	all, err := service.ListPosts(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ListPosts returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(all))
	}

	mine, err := service.ListPosts(context.Background(), Filter{AuthorID: &alice})
	if err != nil {
		t.Fatalf("ListPosts returned error: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 posts for alice, got %d", len(mine))
	}
}

func TestUpdatePostOwnership(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)
	owner := uuid.New()

	created, err := service.CreatePost(context.Background(), owner, "draft", "v1")
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}

	title := "final"
	if _, err := service.UpdatePost(context.Background(), uuid.New(), created.ID, Update{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	updated, err := service.UpdatePost(context.Background(), owner, created.ID, Update{Title: &title})
	if err != nil {
		t.Fatalf("UpdatePost returned error: %v", err)
	}
	if updated.Title != "final" || updated.Content != "v1" {
		t.Fatalf("unexpected post after update: %+v", updated)
	}

	blank := " "
	if _, err := service.UpdatePost(context.Background(), owner, created.ID, Update{Title: &blank}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}

	if _, err := service.UpdatePost(context.Background(), owner, uuid.New(), Update{Title: &title}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestDeletePostPurgesAttachmentsFirst(t *testing.T) {
	repo := newFakeRepo()
	purger := &fakePurger{}
	service := NewService(repo, nil)
	service.SetAttachmentPurger(purger)
	owner := uuid.New()

	created, err := service.CreatePost(context.Background(), owner, "temp", "")
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}

	if err := service.DeletePost(context.Background(), uuid.New(), created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(purger.posts) != 0 {
		t.Fatalf("purge must not run for a rejected delete")
	}

	if err := service.DeletePost(context.Background(), owner, created.ID); err != nil {
		t.Fatalf("DeletePost returned error: %v", err)
	}
	if len(purger.posts) != 1 || purger.posts[0] != created.ID {
		t.Fatalf("expected attachments of %s to be purged, got %v", created.ID, purger.posts)
	}
	if _, err := service.GetPost(context.Background(), created.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected post to be gone, got %v", err)
	}
}

// --- fakes ---

type fakeRepo struct {
	posts map[uuid.UUID]Post
	seq   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{posts: make(map[uuid.UUID]Post)}
}

func (f *fakeRepo) Create(ctx context.Context, authorID uuid.UUID, title, content string) (Post, error) {
	f.seq++
	created := time.Unix(int64(f.seq), 0)
	p := Post{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		Author:    user.Summary{ID: authorID, Username: "author", Email: "author@x.com"},
		CreatedAt: created,
		UpdatedAt: created,
	}
	f.posts[p.ID] = p
	return p, nil
}

func (f *fakeRepo) List(ctx context.Context, filter Filter) ([]Post, error) {
	var list []Post
	for _, p := range f.posts {
		if filter.AuthorID != nil && p.Author.ID != *filter.AuthorID {
			continue
		}
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (f *fakeRepo) Get(ctx context.Context, postID uuid.UUID) (Post, error) {
	p, ok := f.posts[postID]
	if !ok {
		return Post{}, ErrPostNotFound
	}
	return p, nil
}

func (f *fakeRepo) Update(ctx context.Context, postID uuid.UUID, update Update) (Post, error) {
	p, ok := f.posts[postID]
	if !ok {
		return Post{}, ErrPostNotFound
	}
	if update.Title != nil {
		p.Title = *update.Title
	}
	if update.Content != nil {
		p.Content = *update.Content
	}
	f.posts[postID] = p
	return p, nil
}

func (f *fakeRepo) Delete(ctx context.Context, postID uuid.UUID) error {
	if _, ok := f.posts[postID]; !ok {
		return ErrPostNotFound
	}
	delete(f.posts, postID)
	return nil
}

type fakePurger struct {
	posts []uuid.UUID
}

func (f *fakePurger) PurgeForPost(ctx context.Context, postID uuid.UUID) error {
	f.posts = append(f.posts, postID)
	return nil
}

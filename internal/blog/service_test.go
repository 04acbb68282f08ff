package blog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/shared"
)

type stubRepo struct {
	Repository
	created     Post
	updateReq   UpdatePostRequest
	publishedAt *time.Time
	slugs       map[string]bool
}

func (s *stubRepo) Create(_ context.Context, post Post) (Post, error) {
	if s.slugs[post.Slug] {
		return Post{}, shared.ErrDuplicate
	}
	s.created = post
	post.ID = 1
	return post, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, req UpdatePostRequest, publishedAt *time.Time) (Post, error) {
	s.updateReq = req
	s.publishedAt = publishedAt
	return Post{ID: id}, nil
}

func TestCreateStampsAuthorAndPublishTime(t *testing.T) {
	repo := &stubRepo{slugs: map[string]bool{}}
	service := NewService(repo)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	actor := &auth.Principal{ID: 7, Role: auth.RoleAdmin}
	post, err := service.Create(context.Background(), actor, CreatePostRequest{
		Title: " Spring Sale ", Slug: " Spring-Sale ", Body: "body", Publish: true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), repo.created.AuthorID)
	require.Equal(t, "spring-sale", repo.created.Slug)
	require.Equal(t, "Spring Sale", repo.created.Title)
	require.True(t, post.IsPublished)
	require.NotNil(t, repo.created.PublishedAt)
	require.Equal(t, fixed, *repo.created.PublishedAt)
}

func TestCreateDraftHasNoPublishTime(t *testing.T) {
	repo := &stubRepo{slugs: map[string]bool{}}
	service := NewService(repo)

	_, err := service.Create(context.Background(), nil, CreatePostRequest{
		Title: "Draft", Slug: "draft", Body: "body",
	})
	require.NoError(t, err)
	require.False(t, repo.created.IsPublished)
	require.Nil(t, repo.created.PublishedAt)
}

func TestCreateDuplicateSlug(t *testing.T) {
	repo := &stubRepo{slugs: map[string]bool{"taken": true}}
	service := NewService(repo)

	_, err := service.Create(context.Background(), nil, CreatePostRequest{
		Title: "T", Slug: "Taken", Body: "body",
	})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdatePublishToggles(t *testing.T) {
	repo := &stubRepo{slugs: map[string]bool{}}
	service := NewService(repo)
	fixed := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	publish := true
	_, err := service.Update(context.Background(), 1, UpdatePostRequest{Publish: &publish})
	require.NoError(t, err)
	require.NotNil(t, repo.publishedAt)
	require.Equal(t, fixed, *repo.publishedAt)

	unpublish := false
	_, err = service.Update(context.Background(), 1, UpdatePostRequest{Publish: &unpublish})
	require.NoError(t, err)
	require.Nil(t, repo.publishedAt, "unpublishing clears the publish time")
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/blog/internal/events"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/models"
	"github.com/Skotchmaster/blog/internal/repo"
)

type PostService struct {
	Posts  repo.PostRepo
	Events events.Publisher
}

func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	posts, err := s.Posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.Posts.GetPost(ctx, id)
	if err != nil {
		return nil, mapPostErr(err, "get post")
	}
	return post, nil
}

func (s *PostService) Create(ctx context.Context, author *models.User, title, content string) (*models.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, newError(ErrValidation, "title must not be empty")
	}

	post, err := s.Posts.CreatePost(ctx, title, content, author.ID)
	if err != nil {
		if errors.Is(err, repo.ErrUnknownAuthor) {
			return nil, newError(ErrUnauthorized, "Could not validate credentials")
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	logging.FromContext(ctx).Info("post_created", "post_id", post.ID, "author_id", author.ID)
	s.publish(ctx, events.PostCreated, post.ID, author)
	return post, nil
}

func (s *PostService) Update(ctx context.Context, user *models.User, id uint, title, content string) (*models.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, newError(ErrValidation, "title must not be empty")
	}
	if err := s.checkOwner(ctx, user, id, "update"); err != nil {
		return nil, err
	}

	post, err := s.Posts.UpdatePost(ctx, id, title, content)
	if err != nil {
		return nil, mapPostErr(err, "update post")
	}

	s.publish(ctx, events.PostUpdated, post.ID, user)
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, user *models.User, id uint) error {
	if err := s.checkOwner(ctx, user, id, "delete"); err != nil {
		return err
	}

	if err := s.Posts.DeletePost(ctx, id); err != nil {
		return mapPostErr(err, "delete post")
	}

	logging.FromContext(ctx).Info("post_deleted", "post_id", id, "author_id", user.ID)
	s.publish(ctx, events.PostDeleted, id, user)
	return nil
}

// checkOwner fails with NotFound for a missing post and Forbidden when
// user is not its author.
func (s *PostService) checkOwner(ctx context.Context, user *models.User, id uint, action string) error {
	post, err := s.Posts.GetPost(ctx, id)
	if err != nil {
		return mapPostErr(err, "get post")
	}
	if post.AuthorID != user.ID {
		logging.FromContext(ctx).Warn("post_forbidden", "post_id", id, "user_id", user.ID, "action", action)
		return newError(ErrForbidden, "Not authorized to "+action+" this post")
	}
	return nil
}

func (s *PostService) publish(ctx context.Context, typ string, postID uint, user *models.User) {
	publish(ctx, s.Events, events.TopicPosts, strconv.FormatUint(uint64(postID), 10), events.Event{
		Type:     typ,
		UserID:   user.ID,
		Username: user.Username,
		PostID:   postID,
	})
}

func mapPostErr(err error, op string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return newError(ErrNotFound, "Post not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}

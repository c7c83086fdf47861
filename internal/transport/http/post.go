package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/blog/internal/middleware/auth"
	"github.com/Skotchmaster/blog/internal/models"
	"github.com/Skotchmaster/blog/internal/service"
)

type PostHandler struct {
	Posts *service.PostService
}

func (h *PostHandler) GetPosts(c echo.Context) error {
	posts, err := h.Posts.List(c.Request().Context())
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}

	post, err := h.Posts.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	user, ok := authmw.CurrentUser(c)
	if !ok {
		return &service.Error{Kind: service.ErrUnauthorized, Detail: "Not authenticated"}
	}

	var req PostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.Posts.Create(c.Request().Context(), user, req.Title, *req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) UpdatePost(c echo.Context) error {
	user, ok := authmw.CurrentUser(c)
	if !ok {
		return &service.Error{Kind: service.ErrUnauthorized, Detail: "Not authenticated"}
	}

	id, err := postID(c)
	if err != nil {
		return err
	}

	var req PostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.Posts.Update(c.Request().Context(), user, id, req.Title, *req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	user, ok := authmw.CurrentUser(c)
	if !ok {
		return &service.Error{Kind: service.ErrUnauthorized, Detail: "Not authenticated"}
	}

	id, err := postID(c)
	if err != nil {
		return err
	}

	if err := h.Posts.Delete(c.Request().Context(), user, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Post deleted successfully"})
}

func postID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		return 0, &service.Error{Kind: service.ErrValidation, Detail: "id must be a non-negative integer"}
	}
	return uint(id), nil
}

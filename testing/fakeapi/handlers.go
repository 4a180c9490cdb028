package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/leandroruel/unrot.app-front/api/unrot"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// zone-less timestamps, like the real backend's LocalDateTime fields
const timestampLayout = "2006-01-02T15:04:05.000"

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func (s *Server) HandleLogin(c echo.Context) error {
	var body unrot.AuthLogin_Input
	if err := c.Bind(&body); err != nil {
		return apiError(http.StatusBadRequest, "InvalidRequest", "invalid request body")
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if !s.allowLogin(email) {
		return apiError(http.StatusTooManyRequests, "RateLimitExceeded", "too many login attempts")
	}
	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()
	if !ok || u.Password != body.Password {
		return apiError(http.StatusUnauthorized, "InvalidCredentials", "invalid email or password")
	}
	return s.authResponse(c, http.StatusOK, u)
}

func (s *Server) HandleRegister(c echo.Context) error {
	var body unrot.AuthRegister_Input
	if err := c.Bind(&body); err != nil {
		return apiError(http.StatusBadRequest, "InvalidRequest", "invalid request body")
	}
	if !strings.Contains(body.Email, "@") || len(body.Password) < 6 {
		return apiError(http.StatusBadRequest, "InvalidRequest", "a valid email and a password of at least 6 characters are required")
	}
	u, err := s.addUser(body.Email, body.Password, body.DisplayName)
	if err != nil {
		return apiError(http.StatusConflict, "EmailTaken", err.Error())
	}
	return s.authResponse(c, http.StatusCreated, u)
}

func (s *Server) authResponse(c echo.Context, code int, u *user) error {
	tok, err := s.issueToken(u)
	if err != nil {
		return err
	}
	return c.JSON(code, unrot.AuthResponse{
		AccessToken:      tok,
		TokenType:        "Bearer",
		ExpiresInSeconds: int64(s.TokenTTL / time.Second),
	})
}

// copies of the posts matching filter, newest first
func (s *Server) listPosts(filter func(*unrot.Post) bool) []*unrot.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*unrot.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if filter == nil || filter(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

// The home feed returns a flat array; clients detect the end by a short page.
func (s *Server) HandleFeed(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	env := paginate(s.listPosts(nil), page, size)
	return c.JSON(http.StatusOK, env.Content)
}

func (s *Server) HandlePosts(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paginate(s.listPosts(nil), page, size))
}

func (s *Server) HandlePostsByCategory(c echo.Context) error {
	slug := c.Param("slug")
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	found := false
	for _, cat := range s.categories {
		if cat.Slug == slug {
			found = true
		}
	}
	s.mu.Unlock()
	if !found {
		return apiError(http.StatusNotFound, "CategoryNotFound", "no such category")
	}
	posts := s.listPosts(func(p *unrot.Post) bool {
		return p.Category != nil && p.Category.Slug == slug
	})
	return c.JSON(http.StatusOK, paginate(posts, page, size))
}

func (s *Server) HandlePost(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postsByID[c.Param("id")]
	if !ok {
		return apiError(http.StatusNotFound, "PostNotFound", "no such post")
	}
	return c.JSON(http.StatusOK, p)
}

// flips membership of the current user in one of the interaction sets, keeping the post's counter in step. Reports whether anything changed.
func (s *Server) setMembership(c echo.Context, sets map[string]map[string]bool, count func(*unrot.Post) *int64, member bool) (bool, error) {
	if s.failInteractions.Load() {
		return false, apiError(http.StatusBadRequest, "InjectedFailure", "interaction rejected")
	}
	u := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.postsByID[c.Param("id")]
	if !ok {
		return false, apiError(http.StatusNotFound, "PostNotFound", "no such post")
	}
	if sets[u.ID] == nil {
		sets[u.ID] = make(map[string]bool)
	}
	if sets[u.ID][p.ID] == member {
		return false, nil
	}
	if member {
		sets[u.ID][p.ID] = true
		*count(p)++
	} else {
		delete(sets[u.ID], p.ID)
		*count(p)--
	}
	return true, nil
}

func likeCount(p *unrot.Post) *int64     { return &p.LikeCount }
func bookmarkCount(p *unrot.Post) *int64 { return &p.BookmarkCount }

func (s *Server) HandleLikeCreate(c echo.Context) error {
	changed, err := s.setMembership(c, s.likes, likeCount, true)
	if err != nil {
		return err
	}
	if changed {
		s.notify(currentUser(c), c.Param("id"), unrot.NotificationLike, "liked your post")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) HandleLikeDelete(c echo.Context) error {
	if _, err := s.setMembership(c, s.likes, likeCount, false); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) HandleBookmarkCreate(c echo.Context) error {
	if _, err := s.setMembership(c, s.bookmarks, bookmarkCount, true); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) HandleBookmarkDelete(c echo.Context) error {
	if _, err := s.setMembership(c, s.bookmarks, bookmarkCount, false); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) HandleShareCreate(c echo.Context) error {
	if s.failInteractions.Load() {
		return apiError(http.StatusBadRequest, "InjectedFailure", "interaction rejected")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postsByID[c.Param("id")]
	if !ok {
		return apiError(http.StatusNotFound, "PostNotFound", "no such post")
	}
	p.ShareCount++
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) HandleCommentsList(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	_, ok := s.postsByID[c.Param("id")]
	all := append([]*unrot.Comment(nil), s.comments[c.Param("id")]...)
	s.mu.Unlock()
	if !ok {
		return apiError(http.StatusNotFound, "PostNotFound", "no such post")
	}
	return c.JSON(http.StatusOK, paginate(all, page, size))
}

func (s *Server) HandleCommentCreate(c echo.Context) error {
	var body unrot.CommentCreate_Input
	if err := c.Bind(&body); err != nil {
		return apiError(http.StatusBadRequest, "InvalidRequest", "invalid request body")
	}
	if strings.TrimSpace(body.Content) == "" {
		return apiError(http.StatusBadRequest, "InvalidRequest", "comment content is required")
	}
	u := currentUser(c)
	postID := c.Param("id")

	s.mu.Lock()
	p, ok := s.postsByID[postID]
	if !ok {
		s.mu.Unlock()
		return apiError(http.StatusNotFound, "PostNotFound", "no such post")
	}
	cm := &unrot.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    u.ID,
		Content:   body.Content,
		CreatedAt: timestamp(time.Now()),
	}
	s.comments[postID] = append(s.comments[postID], cm)
	p.CommentCount++
	s.mu.Unlock()

	s.notify(u, postID, unrot.NotificationComment, "commented on your post")
	return c.JSON(http.StatusCreated, cm)
}

func (s *Server) HandleCommentDelete(c echo.Context) error {
	u := currentUser(c)
	postID, commentID := c.Param("id"), c.Param("commentId")

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.comments[postID]
	for i, cm := range list {
		if cm.ID != commentID {
			continue
		}
		if cm.UserID != u.ID {
			return apiError(http.StatusForbidden, "Forbidden", "not the author of this comment")
		}
		s.comments[postID] = append(list[:i:i], list[i+1:]...)
		if p, ok := s.postsByID[postID]; ok {
			p.CommentCount--
		}
		return c.NoContent(http.StatusNoContent)
	}
	return apiError(http.StatusNotFound, "CommentNotFound", "no such comment")
}

func (s *Server) HandleCategories(c echo.Context) error {
	s.mu.Lock()
	out := append([]unrot.Category{}, s.categories...)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, out)
}

func (s *Server) HandleNotifications(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	u := currentUser(c)
	s.mu.Lock()
	all := s.notifications[u.ID]
	// newest first
	out := make([]*unrot.Notification, len(all))
	for i, n := range all {
		out[len(all)-1-i] = n
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, paginate(out, page, size))
}

// notify the author of a post about an action by another user
func (s *Server) notify(from *user, postID, kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postsByID[postID]
	if !ok || p.AuthorID == from.ID {
		return
	}
	if _, ok := s.usersByID[p.AuthorID]; !ok {
		return
	}
	s.addNotification(p.AuthorID, &unrot.Notification{
		ID:   uuid.NewString(),
		Type: kind,
		FromUser: unrot.NotificationActor{
			ID:   from.ID,
			Name: from.DisplayName,
		},
		PostID:    &postID,
		Message:   message,
		CreatedAt: timestamp(time.Now()),
	})
}

// caller holds the lock
func (s *Server) addNotification(userID string, n *unrot.Notification) {
	s.notifications[userID] = append(s.notifications[userID], n)
}

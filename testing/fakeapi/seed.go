package fakeapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/leandroruel/unrot.app-front/api/unrot"

	"github.com/brianvoe/gofakeit/v6"
	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
)

// AddUser creates an account and returns its id. Returns an error if the email is already registered.
func (s *Server) AddUser(email, password, displayName string) (string, error) {
	u, err := s.addUser(email, password, displayName)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *Server) addUser(email, password, displayName string) (*user, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return nil, fmt.Errorf("email already registered: %s", email)
	}
	u := &user{
		ID:          uuid.NewString(),
		Email:       key,
		Password:    password,
		DisplayName: displayName,
	}
	s.users[key] = u
	s.usersByID[u.ID] = u
	return u, nil
}

// UserID returns the account id registered for an email.
func (s *Server) UserID(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[strings.ToLower(email)]; ok {
		return u.ID
	}
	return ""
}

func (s *Server) AddCategory(name, slug string) unrot.Category {
	cat := unrot.Category{ID: uuid.NewString(), Name: name, Slug: slug}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, cat)
	return cat
}

// AddPost stores a record as-is, so malformed records can be served too. Posts are listed in reverse order of addition. A missing id is generated.
func (s *Server) AddPost(p unrot.Post) *unrot.Post {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Media == nil {
		p.Media = []unrot.Media{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append([]*unrot.Post{&p}, s.posts...)
	s.postsByID[p.ID] = &p
	return &p
}

// AddNotification delivers a notification to an account directly.
func (s *Server) AddNotification(userID string, n unrot.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addNotification(userID, &n)
}

// IsLiked reports the server-side like state, for test assertions.
func (s *Server) IsLiked(userID, postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes[userID][postID]
}

func (s *Server) IsBookmarked(userID, postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarks[userID][postID]
}

var seedCategories = []struct{ name, slug string }{
	{"Music", "music"},
	{"Games", "games"},
	{"Science", "science"},
	{"Sports", "sports"},
}

var seedTypes = []string{
	unrot.PostTypeNote,
	unrot.PostTypeArticle,
	unrot.PostTypeImage,
	unrot.PostTypeVideo,
	unrot.PostTypeLink,
	unrot.PostTypeGame,
	unrot.PostTypeSponsored,
}

// Seed fills the server with a demo account, a few other authors, and n generated posts. Apart from account ids, the same seed generates the same content.
func (s *Server) Seed(seed int64, n int, demoEmail, demoPassword string) error {
	faker := gofakeit.New(seed)

	demo, err := s.AddUser(demoEmail, demoPassword, "Demo User")
	if err != nil {
		return err
	}
	authors := []string{demo}
	for i := 0; i < 5; i++ {
		email := fmt.Sprintf("%s.%d@%s", petname.Generate(2, "."), i, faker.DomainName())
		id, err := s.AddUser(email, faker.Password(true, true, true, false, false, 12), faker.Name())
		if err != nil {
			return err
		}
		authors = append(authors, id)
	}

	var cats []unrot.Category
	for _, c := range seedCategories {
		cats = append(cats, s.AddCategory(c.name, c.slug))
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		typ := seedTypes[faker.Number(0, len(seedTypes)-1)]
		p := unrot.Post{
			ID:            faker.UUID(),
			AuthorID:      authors[faker.Number(0, len(authors)-1)],
			Type:          typ,
			Content:       faker.Sentence(faker.Number(4, 30)),
			LikeCount:     int64(faker.Number(0, 300)),
			CommentCount:  0,
			BookmarkCount: int64(faker.Number(0, 40)),
			ShareCount:    int64(faker.Number(0, 20)),
			CreatedAt:     timestamp(start.Add(time.Duration(i) * time.Hour)),
		}
		if faker.Bool() {
			cat := cats[faker.Number(0, len(cats)-1)]
			p.Category = &cat
		}
		switch typ {
		case unrot.PostTypeArticle:
			p.Content = faker.Paragraph(3, 4, 12, "\n\n")
		case unrot.PostTypeLink, unrot.PostTypeGame:
			p.Content = p.Content + " " + faker.URL()
		case unrot.PostTypeImage, unrot.PostTypeVideo:
			if faker.Bool() {
				p.Media = []unrot.Media{{
					ID:       faker.UUID(),
					URL:      fmt.Sprintf("https://picsum.photos/seed/%s/800/450", faker.LetterN(8)),
					MimeType: "image/jpeg",
				}}
			}
		}
		s.AddPost(p)
	}

	s.AddNotification(demo, unrot.Notification{
		Type:      unrot.NotificationFollow,
		FromUser:  unrot.NotificationActor{ID: authors[1], Name: "Someone"},
		Message:   "started following you",
		CreatedAt: timestamp(start),
	})
	return nil
}

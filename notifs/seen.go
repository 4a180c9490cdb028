package notifs

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeenStore persists which notifications an account has read.
type SeenStore interface {
	LastSeen(ctx context.Context, account string) (time.Time, error)
	UpdateSeen(ctx context.Context, account string, seen time.Time) error
	ReadIDs(ctx context.Context, account string) (map[string]bool, error)
	MarkRead(ctx context.Context, account string, ids ...string) error
}

type NotifSeen struct {
	ID       uint   `gorm:"primarykey"`
	Account  string `gorm:"uniqueIndex"`
	LastSeen time.Time
}

type NotifRead struct {
	ID      uint   `gorm:"primarykey"`
	Account string `gorm:"uniqueIndex:idx_notif_read_account_notif"`
	NotifID string `gorm:"uniqueIndex:idx_notif_read_account_notif"`
	ReadAt  time.Time
}

// Database-backed read state, so it survives process restarts.
type DBSeen struct {
	db *gorm.DB
}

var _ SeenStore = (*DBSeen)(nil)

func NewDBSeen(db *gorm.DB) (*DBSeen, error) {
	if err := db.AutoMigrate(&NotifSeen{}, &NotifRead{}); err != nil {
		return nil, err
	}
	return &DBSeen{db: db}, nil
}

func (s *DBSeen) LastSeen(ctx context.Context, account string) (time.Time, error) {
	var rows []NotifSeen
	if err := s.db.WithContext(ctx).Where("account = ?", account).Limit(1).Find(&rows).Error; err != nil {
		return time.Time{}, err
	}
	if len(rows) == 0 {
		return time.Time{}, nil
	}
	return rows[0].LastSeen, nil
}

func (s *DBSeen) UpdateSeen(ctx context.Context, account string, seen time.Time) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen"}),
	}).Create(&NotifSeen{
		Account:  account,
		LastSeen: seen.UTC(),
	}).Error
}

func (s *DBSeen) ReadIDs(ctx context.Context, account string) (map[string]bool, error) {
	var rows []NotifRead
	if err := s.db.WithContext(ctx).Where("account = ?", account).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.NotifID] = true
	}
	return out, nil
}

func (s *DBSeen) MarkRead(ctx context.Context, account string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]NotifRead, len(ids))
	for i, id := range ids {
		rows[i] = NotifRead{Account: account, NotifID: id, ReadAt: now}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// In-memory read state, lost on restart.
type MemorySeen struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	read     map[string]map[string]bool
}

var _ SeenStore = (*MemorySeen)(nil)

func NewMemorySeen() *MemorySeen {
	return &MemorySeen{
		lastSeen: make(map[string]time.Time),
		read:     make(map[string]map[string]bool),
	}
}

func (s *MemorySeen) LastSeen(ctx context.Context, account string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen[account], nil
}

func (s *MemorySeen) UpdateSeen(ctx context.Context, account string, seen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[account] = seen
	return nil
}

func (s *MemorySeen) ReadIDs(ctx context.Context, account string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.read[account]))
	for id := range s.read[account] {
		out[id] = true
	}
	return out, nil
}

func (s *MemorySeen) MarkRead(ctx context.Context, account string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.read[account] == nil {
		s.read[account] = make(map[string]bool)
	}
	for _, id := range ids {
		s.read[account][id] = true
	}
	return nil
}

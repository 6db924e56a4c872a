package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Anastasiia-on/intention/internal/models"
)

// InMemoryStore is a Store kept entirely in process memory. It backs tests
// and ad-hoc runs where no database is wanted.
type InMemoryStore struct {
	mu sync.Mutex

	users       map[int64]models.User // keyed by user ID
	byTelegram  map[int64]int64       // telegram ID -> user ID
	intentions  map[int64]models.Intention
	categories  map[int64]models.Category
	reflections []models.Reflection
	notifSeen   map[string]bool

	nextUserID       int64
	nextIntentionID  int64
	nextCategoryID   int64
	nextReflectionID int64
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:      make(map[int64]models.User),
		byTelegram: make(map[int64]int64),
		intentions: make(map[int64]models.Intention),
		categories: make(map[int64]models.Category),
		notifSeen:  make(map[string]bool),
	}
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) UpsertUserLanguage(telegramID int64, lang models.Language, profile models.Profile) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byTelegram[telegramID]; ok {
		u := s.users[id]
		u.Language = lang
		u.FirstName = profile.FirstName
		u.LastName = profile.LastName
		u.Username = profile.Username
		s.users[id] = u
		return u, nil
	}

	s.nextUserID++
	u := models.User{
		ID:           s.nextUserID,
		TelegramID:   telegramID,
		Language:     lang,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Username:     profile.Username,
		ReminderTime: "09:00",
		EveningTime:  "20:30",
		WeeklyTime:   "18:00",
		MonthlyTime:  "21:00",
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	s.byTelegram[telegramID] = u.ID
	return u, nil
}

func (s *InMemoryStore) UpdateUserProfile(telegramID int64, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTelegram[telegramID]
	if !ok {
		return nil
	}
	u := s.users[id]
	u.FirstName = profile.FirstName
	u.LastName = profile.LastName
	u.Username = profile.Username
	s.users[id] = u
	return nil
}

func (s *InMemoryStore) GetUserByTelegramID(telegramID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byTelegram[telegramID]
	if !ok {
		return nil, nil
	}
	u := s.users[id]
	return &u, nil
}

func (s *InMemoryStore) ListUsers() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterUsers(func(models.User) bool { return true }), nil
}

func (s *InMemoryStore) ListUsersByReminderTime(hhmm string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterUsers(func(u models.User) bool { return u.ReminderTime == hhmm }), nil
}

func (s *InMemoryStore) ListUsersByEveningTime(hhmm string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterUsers(func(u models.User) bool { return u.EveningTime == hhmm }), nil
}

func (s *InMemoryStore) ListUsersByWeeklyTime(hhmm string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterUsers(func(u models.User) bool { return u.WeeklyTime == hhmm }), nil
}

func (s *InMemoryStore) ListUsersByMonthlyTime(hhmm string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterUsers(func(u models.User) bool { return u.MonthlyTime == hhmm }), nil
}

// filterUsers must be called with the lock held.
func (s *InMemoryStore) filterUsers(keep func(models.User) bool) []models.User {
	var users []models.User
	for _, u := range s.users {
		if keep(u) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *InMemoryStore) AddIntention(userID int64, payload models.EncryptedPayload) (models.Intention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextIntentionID++
	it := models.Intention{
		ID:        s.nextIntentionID,
		UserID:    userID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	s.intentions[it.ID] = it
	return it, nil
}

func (s *InMemoryStore) ListIntentionsForUser(userID int64) ([]models.Intention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var intentions []models.Intention
	for _, it := range s.intentions {
		if it.UserID == userID {
			intentions = append(intentions, it)
		}
	}
	// Dated first in calendar order, then undated in insertion order.
	sort.Slice(intentions, func(i, j int) bool {
		a, b := intentions[i], intentions[j]
		if (a.Date == "") != (b.Date == "") {
			return a.Date != ""
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ID < b.ID
	})
	return intentions, nil
}

func (s *InMemoryStore) GetIntentionForUser(userID, intentionID int64) (*models.Intention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.intentions[intentionID]
	if !ok || it.UserID != userID {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (s *InMemoryStore) UpdateIntentionText(userID, intentionID int64, payload models.EncryptedPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.intentions[intentionID]
	if !ok || it.UserID != userID {
		return ErrNotFound
	}
	it.Payload = payload
	s.intentions[intentionID] = it
	return nil
}

func (s *InMemoryStore) DeleteIntention(userID, intentionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.intentions[intentionID]
	if !ok || it.UserID != userID {
		return nil
	}
	delete(s.intentions, intentionID)
	return nil
}

func (s *InMemoryStore) SetIntentionDate(userID, intentionID int64, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.intentions[intentionID]
	if !ok || it.UserID != userID {
		return ErrNotFound
	}
	it.Date = date
	s.intentions[intentionID] = it
	return nil
}

func (s *InMemoryStore) SetIntentionCategory(userID, intentionID, categoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	it, ok := s.intentions[intentionID]
	if !ok || it.UserID != userID {
		return ErrNotFound
	}
	it.CategoryID = categoryID
	it.CategoryName = c.Name
	s.intentions[intentionID] = it
	return nil
}

func (s *InMemoryStore) ListIntentionsForUserByDate(userID int64, date string) ([]models.Intention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var intentions []models.Intention
	for _, it := range s.intentions {
		if it.UserID == userID && it.Date == date {
			intentions = append(intentions, it)
		}
	}
	sort.Slice(intentions, func(i, j int) bool { return intentions[i].ID < intentions[j].ID })
	return intentions, nil
}

func (s *InMemoryStore) ListIntentionsForUserByCategory(userID, categoryID int64) ([]models.Intention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var intentions []models.Intention
	for _, it := range s.intentions {
		if it.UserID == userID && it.CategoryID == categoryID {
			intentions = append(intentions, it)
		}
	}
	sort.Slice(intentions, func(i, j int) bool { return intentions[i].ID < intentions[j].ID })
	return intentions, nil
}

func (s *InMemoryStore) CreateOrReuseCategory(userID int64, name string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	for _, c := range s.categories {
		if c.UserID == userID && c.Name == name {
			return c, nil
		}
	}
	s.nextCategoryID++
	c := models.Category{ID: s.nextCategoryID, UserID: userID, Name: name, CreatedAt: time.Now()}
	s.categories[c.ID] = c
	return c, nil
}

func (s *InMemoryStore) ListCategoriesForUser(userID int64) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var categories []models.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *InMemoryStore) GetCategoryForUser(userID, categoryID int64) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) AddReflection(userID int64, date string, payload models.EncryptedPayload, photoFileIDs []string, intentionID int64) (models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReflectionID++
	r := models.Reflection{
		ID:           s.nextReflectionID,
		UserID:       userID,
		Date:         date,
		Payload:      payload,
		PhotoFileIDs: append([]string(nil), photoFileIDs...),
		IntentionID:  intentionID,
		CreatedAt:    time.Now(),
	}
	s.reflections = append(s.reflections, r)
	return r, nil
}

func (s *InMemoryStore) ListReflectionsForUser(userID int64) ([]models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reflections []models.Reflection
	for _, r := range s.reflections {
		if r.UserID == userID {
			reflections = append(reflections, r)
		}
	}
	sort.Slice(reflections, func(i, j int) bool {
		if reflections[i].Date != reflections[j].Date {
			return reflections[i].Date < reflections[j].Date
		}
		return reflections[i].ID < reflections[j].ID
	})
	return reflections, nil
}

func (s *InMemoryStore) GetMonthlySummary(userID int64, start, end string) (models.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summary models.MonthlySummary
	for _, it := range s.intentions {
		if it.UserID != userID {
			continue
		}
		created := it.CreatedAt.Format("2006-01-02")
		if created >= start && created <= end {
			summary.Intentions++
		}
		if it.Date != "" && it.Date >= start && it.Date <= end {
			summary.PlannedDates++
		}
	}
	for _, r := range s.reflections {
		if r.UserID == userID && r.Date >= start && r.Date <= end {
			summary.Reflections++
		}
	}
	return summary, nil
}

func (s *InMemoryStore) RecordNotification(userID int64, notifType, date string, intentionID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%d|%s|%s|%d", userID, notifType, date, intentionID)
	if s.notifSeen[key] {
		return false, nil
	}
	s.notifSeen[key] = true
	return true, nil
}

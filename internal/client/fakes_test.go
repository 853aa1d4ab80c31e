package client_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/repositories"
)

// userStore is an in-memory stand-in for the Mongo user repositories.
type userStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.UserDB
	now   func() time.Time
}

func newUserStore(now func() time.Time) *userStore {
	return &userStore{users: map[uuid.UUID]models.UserDB{}, now: now}
}

func (s *userStore) GetByUsernameOrEmail(_ context.Context, username, email *string) (*models.UserDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (username != nil && u.Username == *username) || (email != nil && u.Email == *email) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (s *userStore) GetByID(_ context.Context, userID uuid.UUID) (*models.UserDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *userStore) Save(_ context.Context, user *models.UserDB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	now := s.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.UserID] = *user
	return nil
}

func (s *userStore) modify(userID uuid.UUID, fn func(u *models.UserDB)) error {
	return s.modifyIf(userID, func(models.UserDB) bool { return true }, fn)
}

// modifyIf applies fn only when match holds, mirroring a filtered UpdateOne.
func (s *userStore) modifyIf(userID uuid.UUID, match func(u models.UserDB) bool, fn func(u *models.UserDB)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || !match(u) {
		return repositories.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = s.now().UTC()
	s.users[userID] = u
	return nil
}

func (s *userStore) SetOTP(_ context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	return s.modify(userID, func(u *models.UserDB) {
		u.OTP = code
		u.OTPExpiration = &expiresAt
	})
}

func (s *userStore) ClearOTP(_ context.Context, userID uuid.UUID) error {
	return s.modify(userID, func(u *models.UserDB) {
		u.OTP = ""
		u.OTPExpiration = nil
	})
}

func (s *userStore) ConsumeOTP(_ context.Context, userID uuid.UUID, code string, now time.Time, resetTokenID string) error {
	match := func(u models.UserDB) bool {
		return u.OTP == code && u.OTPExpiration != nil && !now.After(*u.OTPExpiration)
	}
	return s.modifyIf(userID, match, func(u *models.UserDB) {
		u.OTP = ""
		u.OTPExpiration = nil
		u.ResetTokenID = resetTokenID
	})
}

func (s *userStore) UpdatePassword(_ context.Context, userID uuid.UUID, resetTokenID, passwordHash string) error {
	match := func(u models.UserDB) bool { return u.ResetTokenID == resetTokenID }
	return s.modifyIf(userID, match, func(u *models.UserDB) {
		changed := s.now().UTC()
		u.PasswordHash = passwordHash
		u.PasswordChangedAt = &changed
		u.ResetTokenID = ""
	})
}

func (s *userStore) Update(_ context.Context, userID uuid.UUID, upd models.UserUpdate) error {
	return s.modify(userID, func(u *models.UserDB) {
		if upd.FirstName != nil {
			u.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			u.LastName = *upd.LastName
		}
		if upd.PhoneNumber != nil {
			u.PhoneNumber = *upd.PhoneNumber
		}
		if upd.Address != nil {
			u.Address = *upd.Address
		}
		if upd.Category != nil {
			u.Category = *upd.Category
		}
		if upd.PasswordHash != nil {
			u.PasswordHash = *upd.PasswordHash
			u.ResetTokenID = ""
		}
		if upd.PasswordChangedAt != nil {
			u.PasswordChangedAt = upd.PasswordChangedAt
		}
	})
}

func (s *userStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

func (s *userStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// itemStore is an in-memory stand-in for the Postgres item repositories.
type itemStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.ItemDB
	now   func() time.Time
}

func newItemStore(now func() time.Time) *itemStore {
	return &itemStore{items: map[uuid.UUID]models.ItemDB{}, now: now}
}

func (s *itemStore) GetByID(_ context.Context, ownerID, itemID uuid.UUID) (*models.ItemDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok || it.OwnerID != ownerID {
		return nil, repositories.ErrNotFound
	}
	return &it, nil
}

func (s *itemStore) List(_ context.Context, ownerID uuid.UUID, category *string) ([]models.ItemDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ItemDB
	for _, it := range s.items {
		if it.OwnerID != ownerID || (category != nil && it.Category != *category) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *itemStore) Report(_ context.Context, ownerID uuid.UUID) ([]models.CategoryReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byCategory := map[string]*models.CategoryReport{}
	for _, it := range s.items {
		if it.OwnerID != ownerID {
			continue
		}
		r, ok := byCategory[it.Category]
		if !ok {
			r = &models.CategoryReport{Category: it.Category}
			byCategory[it.Category] = r
		}
		r.Items++
		r.Quantity += it.Quantity
		r.TotalValue += float64(it.Quantity) * it.UnitPrice
	}
	out := make([]models.CategoryReport, 0, len(byCategory))
	for _, r := range byCategory {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *itemStore) Save(_ context.Context, item *models.ItemDB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	s.items[item.ItemID] = *item
	return nil
}

func (s *itemStore) Update(_ context.Context, ownerID, itemID uuid.UUID, upd models.ItemUpdate) (*models.ItemDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok || it.OwnerID != ownerID {
		return nil, repositories.ErrNotFound
	}
	if upd.Name != nil {
		it.Name = *upd.Name
	}
	if upd.Category != nil {
		it.Category = *upd.Category
	}
	if upd.Quantity != nil {
		it.Quantity = *upd.Quantity
	}
	if upd.Unit != nil {
		it.Unit = *upd.Unit
	}
	if upd.UnitPrice != nil {
		it.UnitPrice = *upd.UnitPrice
	}
	if upd.Description != nil {
		it.Description = *upd.Description
	}
	if upd.Attributes != nil {
		it.Attributes = *upd.Attributes
	}
	it.UpdatedAt = s.now().UTC()
	s.items[itemID] = it
	return &it, nil
}

func (s *itemStore) Delete(_ context.Context, ownerID, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok || it.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.items, itemID)
	return nil
}

func (s *itemStore) DeleteByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, it := range s.items {
		if it.OwnerID == ownerID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

// memoryLimiter counts attempts without expiry.
type memoryLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{counts: map[string]int64{}}
}

func (l *memoryLimiter) Increment(_ context.Context, scope, identifier string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[scope+":"+identifier]++
	return l.counts[scope+":"+identifier], nil
}

func (l *memoryLimiter) Reset(_ context.Context, scope, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, scope+":"+identifier)
	return nil
}

// outbox captures emailed codes per recipient.
type outbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func newOutbox() *outbox {
	return &outbox{codes: map[string]string{}}
}

func (o *outbox) SendOTP(_ context.Context, to, _ string, code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.codes[to] = code
	return nil
}

func (o *outbox) lastCode(to string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.codes[to]
}

// eventBus delivers published events synchronously to a handler, standing in for Kafka.
type eventBus struct {
	mu      sync.Mutex
	handler func(ctx context.Context, event models.Event) error
	events  []models.Event
}

func (b *eventBus) Publish(ctx context.Context, eventType string, userID uuid.UUID, entityID string, data map[string]string) {
	event := models.Event{
		EventID:  uuid.NewString(),
		Type:     eventType,
		UserID:   userID.String(),
		EntityID: entityID,
		Data:     data,
	}
	b.mu.Lock()
	b.events = append(b.events, event)
	handler := b.handler
	b.mu.Unlock()
	if handler != nil {
		_ = handler(ctx, event)
	}
}

func (b *eventBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

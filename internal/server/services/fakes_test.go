package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/server/models"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memUsers is an in-memory users.Repository. Setting fail[op] makes the
// named operation return that error.
type memUsers struct {
	mu    sync.Mutex
	seq   int
	byID  map[string]*models.User
	fail  map[string]error
	calls map[string]int
}

func newMemUsers() *memUsers {
	return &memUsers{
		byID:  map[string]*models.User{},
		fail:  map[string]error{},
		calls: map[string]int{},
	}
}

func (r *memUsers) hit(op string) error {
	r.calls[op]++
	return r.fail[op]
}

func clone(u *models.User) *models.User {
	cp := *u
	cp.Tokens = append([]models.TokenEntry{}, u.Tokens...)
	return &cp
}

func (r *memUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("Create"); err != nil {
		return nil, err
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	r.seq++
	user.ID = fmt.Sprintf("u%d", r.seq)
	user.CreatedAt = time.Now()
	if user.Tokens == nil {
		user.Tokens = []models.TokenEntry{}
	}
	r.byID[user.ID] = clone(user)
	return user, nil
}

func (r *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("FindByID"); err != nil {
		return nil, err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("FindByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.byID {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) FindByRefreshToken(_ context.Context, token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("FindByRefreshToken"); err != nil {
		return nil, err
	}
	for _, u := range r.byID {
		if u.HasRefreshToken(token) {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) AppendRefreshToken(_ context.Context, userID string, entry models.TokenEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("AppendRefreshToken"); err != nil {
		return false, err
	}
	u, ok := r.byID[userID]
	if !ok || u.HasRefreshToken(entry.Token) {
		return false, nil
	}
	u.Tokens = append(u.Tokens, entry)
	return true, nil
}

func (r *memUsers) RemoveRefreshToken(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("RemoveRefreshToken"); err != nil {
		return err
	}
	u, ok := r.byID[userID]
	if !ok {
		return nil
	}
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

func (r *memUsers) ClearRefreshTokens(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("ClearRefreshTokens"); err != nil {
		return err
	}
	if u, ok := r.byID[userID]; ok {
		u.Tokens = []models.TokenEntry{}
	}
	return nil
}

// tokens returns a snapshot of the user's allowlist.
func (r *memUsers) tokens(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(u.Tokens))
	for _, t := range u.Tokens {
		out = append(out, t.Token)
	}
	return out
}

func (r *memUsers) delete(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, userID)
}

// memBooks is an in-memory books.Repository.
type memBooks struct {
	mu       sync.Mutex
	seq      int
	books    map[string]*models.Book
	borrowed []models.BorrowRecord
	fail     map[string]error
	lastAt   time.Time
}

func newMemBooks(list ...models.Book) *memBooks {
	r := &memBooks{books: map[string]*models.Book{}, fail: map[string]error{}}
	for i := range list {
		b := list[i]
		r.books[b.ID] = &b
	}
	return r
}

func (r *memBooks) ListAvailable(context.Context) ([]models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail["ListAvailable"]; err != nil {
		return nil, err
	}
	out := []models.Book{}
	for _, b := range r.books {
		if b.Availability {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBooks) Search(_ context.Context, title, author string) ([]models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Book{}
	for _, b := range r.books {
		if title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(title)) {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(author)) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *memBooks) Borrow(_ context.Context, userID, bookID string, at time.Time) (*models.BorrowRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail["Borrow"]; err != nil {
		return nil, err
	}
	b, ok := r.books[bookID]
	if !ok || !b.Availability {
		return nil, common.ErrBookUnavailable
	}
	b.Availability = false
	r.seq++
	rec := models.BorrowRecord{ID: fmt.Sprintf("r%d", r.seq), UserID: userID, BookID: bookID, BorrowDate: at}
	r.borrowed = append(r.borrowed, rec)
	r.lastAt = at
	return &rec, nil
}

func (r *memBooks) Return(_ context.Context, userID, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, rec := range r.borrowed {
		if rec.UserID == userID && rec.BookID == bookID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return common.ErrBorrowNotFound
	}
	r.borrowed = append(r.borrowed[:idx], r.borrowed[idx+1:]...)
	b, ok := r.books[bookID]
	if !ok {
		return common.ErrorNotFound
	}
	b.Availability = true
	return nil
}

func (r *memBooks) ListBorrowed(_ context.Context, userID string) ([]models.BorrowedBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail["ListBorrowed"]; err != nil {
		return nil, err
	}
	out := []models.BorrowedBook{}
	for _, rec := range r.borrowed {
		if rec.UserID != userID {
			continue
		}
		bb := models.BorrowedBook{ID: rec.ID, UserID: rec.UserID, BorrowDate: rec.BorrowDate}
		if b, ok := r.books[rec.BookID]; ok {
			cp := *b
			bb.Book = &cp
		}
		out = append(out, bb)
	}
	return out, nil
}

func (r *memBooks) Import(_ context.Context, list []models.Book) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail["Import"]; err != nil {
		return 0, err
	}
	n := 0
outer:
	for _, b := range list {
		b := b
		for _, existing := range r.books {
			if b.ExternalID != "" && existing.ExternalID == b.ExternalID {
				continue outer
			}
		}
		r.seq++
		b.ID = fmt.Sprintf("b%d", r.seq)
		r.books[b.ID] = &b
		n++
	}
	return n, nil
}

package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/database/books"
	"github.com/openlibry/openlibry/internal/database/users"
	"github.com/openlibry/openlibry/internal/entities"
)

// fakeBookStore is an in-memory BookStore mirroring the repository's
// patch semantics.
type fakeBookStore struct {
	books map[uint]*entities.Book
}

func newFakeBookStore(items ...entities.Book) *fakeBookStore {
	store := &fakeBookStore{books: make(map[uint]*entities.Book)}
	for i := range items {
		book := items[i]
		store.books[book.ID] = &book
	}
	return store
}

func (f *fakeBookStore) GetBookByID(id uint) (*entities.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, books.ErrNotFound
	}
	copied := *book
	return &copied, nil
}

func (f *fakeBookStore) GetAllBooks() ([]entities.Book, error) {
	out := make([]entities.Book, 0, len(f.books))
	for _, book := range f.books {
		out = append(out, *book)
	}
	return out, nil
}

func (f *fakeBookStore) AddBook(book *entities.Book) (*entities.Book, error) {
	if book.ID == 0 {
		book.ID = uint(len(f.books) + 1)
	}
	if book.RentalStatus == "" {
		book.RentalStatus = entities.StatusAvailable
	}
	copied := *book
	f.books[book.ID] = &copied
	return book, nil
}

func (f *fakeBookStore) UpdateBook(id uint, patch map[string]any) (*entities.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, books.ErrNotFound
	}
	for key, value := range patch {
		switch key {
		case "title":
			book.Title = value.(string)
		case "author":
			book.Author = value.(string)
		case "isbn":
			book.ISBN = value.(string)
		case "rental_status":
			switch v := value.(type) {
			case string:
				book.RentalStatus = entities.RentalStatus(v)
			case entities.RentalStatus:
				book.RentalStatus = v
			}
		case "due_date":
			if value == nil {
				book.DueDate = nil
			} else {
				due := value.(time.Time)
				book.DueDate = &due
			}
		case "renewal_count":
			book.RenewalCount = value.(int)
		case "borrower_id":
			if value == nil {
				book.BorrowerID = nil
			} else {
				borrower := value.(uint)
				book.BorrowerID = &borrower
			}
		case "reminder_at":
			book.ReminderAt = nil
		}
	}
	copied := *book
	return &copied, nil
}

func (f *fakeBookStore) DeleteBook(id uint) error {
	if _, ok := f.books[id]; !ok {
		return books.ErrNotFound
	}
	delete(f.books, id)
	return nil
}

func (f *fakeBookStore) GetBooksByBorrower(userID uint) ([]entities.Book, error) {
	var out []entities.Book
	for _, book := range f.books {
		if book.RentalStatus == entities.StatusRented && book.BorrowerID != nil && *book.BorrowerID == userID {
			out = append(out, *book)
		}
	}
	return out, nil
}

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	users map[uint]*entities.User
}

func newFakeUserStore(items ...entities.User) *fakeUserStore {
	store := &fakeUserStore{users: make(map[uint]*entities.User)}
	for i := range items {
		user := items[i]
		store.users[user.ID] = &user
	}
	return store
}

func (f *fakeUserStore) GetUserByID(id uint) (*entities.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetAllUsers() ([]entities.User, error) {
	out := make([]entities.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserStore) CreateUser(user *entities.User) (*entities.User, error) {
	if user.LastName == "" || user.FirstName == "" {
		return nil, users.ErrNameRequired
	}
	if user.ID == 0 {
		user.ID = uint(len(f.users) + 1)
	}
	copied := *user
	f.users[user.ID] = &copied
	return user, nil
}

func (f *fakeUserStore) UpdateUser(id uint, patch map[string]any) (*entities.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	for key, value := range patch {
		switch key {
		case "last_name":
			user.LastName = value.(string)
		case "first_name":
			user.FirstName = value.(string)
		case "school_grade":
			user.SchoolGrade = value.(string)
		case "active":
			user.Active = value.(bool)
		}
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) DeleteUser(id uint) error {
	if _, ok := f.users[id]; !ok {
		return users.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

// fakeRentalLister returns a fixed projection set.
type fakeRentalLister struct {
	projections []entities.RentalProjection
}

func (f *fakeRentalLister) GetRentedBooksWithUsers(now time.Time) ([]entities.RentalProjection, error) {
	return f.projections, nil
}

// doJSON performs a request with an optional JSON body against a router.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a recorded JSON response.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

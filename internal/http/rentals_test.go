package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlibry/openlibry/internal/config"
	"github.com/openlibry/openlibry/internal/entities"
	"github.com/openlibry/openlibry/internal/rental"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

func testPolicy() config.Rental {
	return config.Rental{RentalDays: 21, ExtensionDays: 14, MaxExtensions: 2}
}

func rentalRouter(store *fakeBookStore, lister RentalLister, now time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := rental.NewServiceWithClock(store, testPolicy(), fixedClock{now: now})
	controller := NewRentalsController(service, lister)

	router := gin.New()
	router.POST("/api/books/:id/rent", controller.RentBook)
	router.POST("/api/books/:id/return", controller.ReturnBook)
	router.POST("/api/books/:id/extend", controller.ExtendBook)
	router.GET("/api/rentals", controller.GetRentals)
	return router
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return parsed
}

func TestRentBookOK(t *testing.T) {
	store := newFakeBookStore(entities.Book{ID: 1, Title: "Momo", RentalStatus: entities.StatusAvailable})
	router := rentalRouter(store, &fakeRentalLister{}, mustDay(t, "2024-06-01"))

	w := doJSON(t, router, http.MethodPost, "/api/books/1/rent", gin.H{"user_id": 7})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp rentalResponse
	decodeBody(t, w, &resp)
	if resp.Outcome != "ok" {
		t.Errorf("outcome = %q", resp.Outcome)
	}
	if resp.DueDate != "2024-06-22" {
		t.Errorf("due date = %q, want 2024-06-22", resp.DueDate)
	}

	book, _ := store.GetBookByID(1)
	if book.RentalStatus != entities.StatusRented || book.BorrowerID == nil || *book.BorrowerID != 7 {
		t.Errorf("book after rent = %+v", book)
	}
}

func TestRentUnavailableBookIsConflict(t *testing.T) {
	store := newFakeBookStore(entities.Book{ID: 1, RentalStatus: entities.StatusBroken})
	router := rentalRouter(store, &fakeRentalLister{}, mustDay(t, "2024-06-01"))

	w := doJSON(t, router, http.MethodPost, "/api/books/1/rent", gin.H{"user_id": 7})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	var resp rentalResponse
	decodeBody(t, w, &resp)
	if resp.Outcome != "not_available" {
		t.Errorf("outcome = %q", resp.Outcome)
	}
}

func TestRentMissingBookIs404(t *testing.T) {
	router := rentalRouter(newFakeBookStore(), &fakeRentalLister{}, mustDay(t, "2024-06-01"))

	w := doJSON(t, router, http.MethodPost, "/api/books/99/rent", gin.H{"user_id": 7})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRentWithoutUserIDIs400(t *testing.T) {
	store := newFakeBookStore(entities.Book{ID: 1, RentalStatus: entities.StatusAvailable})
	router := rentalRouter(store, &fakeRentalLister{}, mustDay(t, "2024-06-01"))

	w := doJSON(t, router, http.MethodPost, "/api/books/1/rent", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestReturnBookClearsLoan(t *testing.T) {
	due := mustDay(t, "2024-05-01")
	borrower := uint(7)
	store := newFakeBookStore(entities.Book{
		ID: 1, RentalStatus: entities.StatusRented, DueDate: &due, BorrowerID: &borrower, RenewalCount: 2,
	})
	router := rentalRouter(store, &fakeRentalLister{}, mustDay(t, "2024-06-01"))

	w := doJSON(t, router, http.MethodPost, "/api/books/1/return", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	book, _ := store.GetBookByID(1)
	if book.RentalStatus != entities.StatusAvailable || book.DueDate != nil || book.BorrowerID != nil || book.RenewalCount != 0 {
		t.Errorf("book after return = %+v", book)
	}
}

func TestReturnNotRentedIsConflict(t *testing.T) {
	store := newFakeBookStore(entities.Book{ID: 1, RentalStatus: entities.StatusAvailable})
	router := rentalRouter(store, &fakeRentalLister{}, mustDay(t, "2024-06-01"))

	w := doJSON(t, router, http.MethodPost, "/api/books/1/return", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	var resp rentalResponse
	decodeBody(t, w, &resp)
	if resp.Outcome != "not_rented" {
		t.Errorf("outcome = %q", resp.Outcome)
	}
}

func TestExtendBookAdvancesDueDate(t *testing.T) {
	due := mustDay(t, "2024-06-05")
	store := newFakeBookStore(entities.Book{ID: 1, RentalStatus: entities.StatusRented, DueDate: &due})
	router := rentalRouter(store, &fakeRentalLister{}, mustDay(t, "2024-06-01"))

	w := doJSON(t, router, http.MethodPost, "/api/books/1/extend", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp rentalResponse
	decodeBody(t, w, &resp)
	if resp.DueDate != "2024-06-15" {
		t.Errorf("due date = %q, want 2024-06-15", resp.DueDate)
	}
	if resp.RenewalCount != 1 {
		t.Errorf("renewal count = %d, want 1", resp.RenewalCount)
	}
}

func TestExtendTwiceSameDayIsAlreadyExtended(t *testing.T) {
	due := mustDay(t, "2024-06-05")
	store := newFakeBookStore(entities.Book{ID: 1, RentalStatus: entities.StatusRented, DueDate: &due})
	router := rentalRouter(store, &fakeRentalLister{}, mustDay(t, "2024-06-01"))

	first := doJSON(t, router, http.MethodPost, "/api/books/1/extend", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first extend status = %d", first.Code)
	}

	second := doJSON(t, router, http.MethodPost, "/api/books/1/extend", nil)
	if second.Code != http.StatusConflict {
		t.Fatalf("second extend status = %d, want 409", second.Code)
	}

	var resp rentalResponse
	decodeBody(t, second, &resp)
	if resp.Outcome != "already_extended" {
		t.Errorf("outcome = %q", resp.Outcome)
	}
	// The stored due date is unchanged
	book, _ := store.GetBookByID(1)
	if book.RenewalCount != 1 {
		t.Errorf("renewal count = %d, want 1", book.RenewalCount)
	}
}

func TestGetRentals(t *testing.T) {
	lister := &fakeRentalLister{projections: []entities.RentalProjection{
		{BookID: 1, Title: "Momo", UserID: 7, LastName: "Müller", DueDays: 3},
		{BookID: 2, Title: "Krabat", UserID: 8, LastName: "Schmidt", DueDays: -5},
	}}
	router := rentalRouter(newFakeBookStore(), lister, mustDay(t, "2024-06-01"))

	w := doJSON(t, router, http.MethodGet, "/api/rentals", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	decodeBody(t, w, &resp)
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}

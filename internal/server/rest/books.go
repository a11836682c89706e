package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophlibrary/internal/common"
	"github.com/dmitrijs2005/gophlibrary/internal/server/services"
)

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.ListAvailable(r.Context())
	if err != nil {
		h.internalError(w, r, "Failed to retrieve books", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Books retrieved successfully", books)
}

func (h *Handler) searchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.Search(r.Context(), searchQuery(r))
	if err != nil {
		if errors.Is(err, common.ErrSearchTermRequired) {
			writeError(w, http.StatusBadRequest, "Please provide a search term", "")
			return
		}
		h.internalError(w, r, "Failed to retrieve books", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Books retrieved successfully", books)
}

// searchQuery keeps the difference between an absent and an empty
// parameter.
func searchQuery(r *http.Request) services.SearchQuery {
	values := r.URL.Query()
	param := func(name string) *string {
		if !values.Has(name) {
			return nil
		}
		v := values.Get(name)
		return &v
	}
	return services.SearchQuery{Title: param("title"), Author: param("author")}
}

func (h *Handler) borrowBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		h.validationError(w, err)
		return
	}

	rec, err := h.catalog.Borrow(r.Context(), caller(r).ID, req.BookID)
	switch {
	case err == nil:
		writeSuccess(w, http.StatusCreated, "Book borrowed successfully", rec)
	case errors.Is(err, common.ErrBookIDRequired):
		writeError(w, http.StatusBadRequest, "Book ID is required", "")
	case errors.Is(err, common.ErrBookUnavailable):
		writeError(w, http.StatusBadRequest, "Book is not available", "")
	default:
		h.internalError(w, r, "Failed to borrow book", err)
	}
}

func (h *Handler) returnBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		h.validationError(w, err)
		return
	}

	err := h.catalog.Return(r.Context(), caller(r).ID, req.BookID)
	switch {
	case err == nil:
		writeSuccess(w, http.StatusOK, "Book returned successfully", nil)
	case errors.Is(err, common.ErrBorrowNotFound):
		writeError(w, http.StatusBadRequest, "No record found for this book borrowing", "")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "Book not found", "")
	default:
		h.internalError(w, r, "Failed to return book", err)
	}
}

func (h *Handler) borrowedBooks(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListBorrowed(r.Context(), caller(r).ID)
	if err != nil {
		h.internalError(w, r, "Failed to retrieve borrowed books", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Borrowed books retrieved successfully", list)
}

package models

import "time"

// Book is a catalog entry. ExternalID is the key in the upstream catalog
// the book was imported from (Open Library work id); it may be empty.
type Book struct {
	ID           string `json:"_id"`
	ExternalID   string `json:"bookId,omitempty"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Availability bool   `json:"availability"`
}

// BorrowRecord ties a user to a book they currently hold.
type BorrowRecord struct {
	ID         string    `json:"_id"`
	UserID     string    `json:"user"`
	BookID     string    `json:"book"`
	BorrowDate time.Time `json:"borrowDate"`
}

// BorrowedBook is a borrow record with its book resolved.
type BorrowedBook struct {
	ID         string    `json:"_id"`
	UserID     string    `json:"user"`
	Book       *Book     `json:"book"`
	BorrowDate time.Time `json:"borrowDate"`
}

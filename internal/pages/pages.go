package pages

import "context"

// Page identifies a created page
type Page struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CreateRequest carries the inputs for creating one page
type CreateRequest struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	ContentType  string `json:"content_type"`
	UserID       string `json:"user_id"`
	PrimaryTagID string `json:"primary_tag_id,omitempty"`
}

// Creator is the page-creation collaborator
type Creator interface {
	CreatePage(ctx context.Context, req CreateRequest) (Page, error)
}

// Lister exposes a user's pre-existing pages, used to seed link resolution
// with targets outside the current batch.
type Lister interface {
	ListPagesByUser(ctx context.Context, userID string) ([]Page, error)
}

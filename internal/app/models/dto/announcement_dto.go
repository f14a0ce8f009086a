package dto

import "time"

// CreateAnnouncementRequest is a coordinator's new post
type CreateAnnouncementRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required"`
}

// AnnouncementResponse is an announcement with author and comment identities resolved
type AnnouncementResponse struct {
	ID        int64             `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Author    AuthorSummary     `json:"author"`
	Comments  []CommentResponse `json:"comments"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// CatalogResponse lists the document types students can submit
type CatalogResponse struct {
	Groups []CatalogGroup `json:"groups"`
}

// CatalogGroup is one titled set of document types
type CatalogGroup struct {
	Key   string        `json:"key"`
	Title string        `json:"title"`
	Types []CatalogType `json:"types"`
}

// CatalogType is one document type in the catalog
type CatalogType struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	HasTemplate bool   `json:"hasTemplate"`
}

// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/snipurl/snip/internal/analytics"
	"github.com/snipurl/snip/internal/model"
	"github.com/snipurl/snip/internal/service"
)

// ShortenRequest represents the request body for creating a link.
type ShortenRequest struct {
	LongURL     string   `json:"longUrl"`
	CustomAlias string   `json:"customAlias,omitempty"`
	ExpiresIn   string   `json:"expiresIn,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Password    string   `json:"password,omitempty"`
	CreatedBy   string   `json:"createdBy,omitempty"`
}

// LinkCounters is the analytics teaser returned on creation.
type LinkCounters struct {
	Clicks  int64     `json:"clicks"`
	Created time.Time `json:"created"`
}

// ShortenResponse represents a created (or reused) link.
type ShortenResponse struct {
	ShortURL  string       `json:"shortUrl"`
	ShortCode string       `json:"shortCode"`
	QRCode    string       `json:"qrCode"`
	ExpiresAt *time.Time   `json:"expiresAt"`
	Analytics LinkCounters `json:"analytics"`
}

// BulkItemRequest is one entry of a bulk request.
type BulkItemRequest struct {
	LongURL     string   `json:"longUrl"`
	CustomAlias string   `json:"customAlias,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedBy   string   `json:"createdBy,omitempty"`
}

// BulkShortenRequest represents the request body for bulk creation.
type BulkShortenRequest struct {
	URLs []BulkItemRequest `json:"urls"`
}

// BulkItemResponse reports the outcome of one bulk item.
type BulkItemResponse struct {
	Success  bool   `json:"success"`
	ShortURL string `json:"shortUrl,omitempty"`
	Error    string `json:"error,omitempty"`
	LongURL  string `json:"longUrl"`
}

// BulkShortenResponse lists per-item outcomes in request order.
type BulkShortenResponse struct {
	Results []BulkItemResponse `json:"results"`
}

// AdminLinkResponse is a link in the admin listing. Clicks and the
// password hash are never included.
type AdminLinkResponse struct {
	ID          string     `json:"id"`
	LongURL     string     `json:"longUrl"`
	ShortCode   string     `json:"shortCode"`
	CustomAlias string     `json:"customAlias,omitempty"`
	ShortURL    string     `json:"shortUrl"`
	ClickCount  int64      `json:"clickCount"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	IsActive    bool       `json:"isActive"`
	HasPassword bool       `json:"hasPassword"`
	QRCode      string     `json:"qrCode"`
	Tags        []string   `json:"tags"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// AdminListResponse represents one page of the admin listing.
type AdminListResponse struct {
	URLs        []AdminLinkResponse `json:"urls"`
	TotalPages  int                 `json:"totalPages"`
	CurrentPage int                 `json:"currentPage"`
	Total       int                 `json:"total"`
}

// AnalyticsURL is the link metadata block of an analytics response.
type AnalyticsURL struct {
	LongURL     string     `json:"longUrl"`
	ShortCode   string     `json:"shortCode"`
	CustomAlias string     `json:"customAlias,omitempty"`
	ShortURL    string     `json:"shortUrl"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	Tags        []string   `json:"tags"`
	QRCode      string     `json:"qrCode"`
}

// AnalyticsResponse pairs link metadata with its click summary.
type AnalyticsResponse struct {
	URL       AnalyticsURL      `json:"url"`
	Analytics analytics.Summary `json:"analytics"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string               `json:"error"`
	Code    string               `json:"code"`
	Fields  []service.FieldError `json:"fields,omitempty"`
	Details string               `json:"details,omitempty"`
}

// ToShortenResponse converts a shorten result to its response DTO.
func ToShortenResponse(res *service.ShortenResult) *ShortenResponse {
	link := res.Link
	return &ShortenResponse{
		ShortURL:  res.ShortURL,
		ShortCode: link.Identifier(),
		QRCode:    link.QRCode,
		ExpiresAt: link.ExpiresAt,
		Analytics: LinkCounters{
			Clicks:  link.ClickCount,
			Created: link.CreatedAt,
		},
	}
}

// ToBulkShortenResponse converts bulk results to their response DTO.
func ToBulkShortenResponse(results []service.BulkResult) *BulkShortenResponse {
	out := make([]BulkItemResponse, len(results))
	for i, r := range results {
		out[i] = BulkItemResponse{
			Success:  r.Success,
			ShortURL: r.ShortURL,
			Error:    r.Error,
			LongURL:  r.LongURL,
		}
	}
	return &BulkShortenResponse{Results: out}
}

// ToAdminLinkResponse converts a Link model to AdminLinkResponse.
func ToAdminLinkResponse(link *model.Link, baseURL string) AdminLinkResponse {
	tags := link.Tags
	if tags == nil {
		tags = []string{}
	}
	return AdminLinkResponse{
		ID:          link.ID,
		LongURL:     link.LongURL,
		ShortCode:   link.ShortCode,
		CustomAlias: link.CustomAlias,
		ShortURL:    baseURL + "/" + link.Identifier(),
		ClickCount:  link.ClickCount,
		ExpiresAt:   link.ExpiresAt,
		IsActive:    link.IsActive,
		HasPassword: link.HasPassword(),
		QRCode:      link.QRCode,
		Tags:        tags,
		CreatedBy:   link.CreatedBy,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

// ToAdminListResponse converts a list result to AdminListResponse.
func ToAdminListResponse(res *service.ListResult, baseURL string) *AdminListResponse {
	urls := make([]AdminLinkResponse, len(res.Links))
	for i, link := range res.Links {
		urls[i] = ToAdminLinkResponse(link, baseURL)
	}
	return &AdminListResponse{
		URLs:        urls,
		TotalPages:  res.TotalPages,
		CurrentPage: res.CurrentPage,
		Total:       res.Total,
	}
}

// ToAnalyticsResponse converts a link and its summary to AnalyticsResponse.
func ToAnalyticsResponse(link *model.Link, summary analytics.Summary, baseURL string) *AnalyticsResponse {
	tags := link.Tags
	if tags == nil {
		tags = []string{}
	}
	return &AnalyticsResponse{
		URL: AnalyticsURL{
			LongURL:     link.LongURL,
			ShortCode:   link.ShortCode,
			CustomAlias: link.CustomAlias,
			ShortURL:    baseURL + "/" + link.Identifier(),
			CreatedAt:   link.CreatedAt,
			ExpiresAt:   link.ExpiresAt,
			Tags:        tags,
			QRCode:      link.QRCode,
		},
		Analytics: summary,
	}
}

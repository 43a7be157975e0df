package notifications

import "time"

type Notification struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	CompanyID   string     `json:"companyId,omitempty"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	RelatedType string     `json:"relatedType,omitempty"`
	RelatedID   string     `json:"relatedId,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

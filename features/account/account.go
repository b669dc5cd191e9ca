package account

import "time"

// Account is the API-facing view of a user's balance and source usage.
type Account struct {
	UserID           string    `json:"userId"`
	Email            string    `json:"email"`
	Credits          float64   `json:"credits"`
	DataSourcesCount int       `json:"dataSourcesCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

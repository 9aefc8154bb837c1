package models

import "time"

type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequesterID int64     `json:"-"`
	Created     time.Time `json:"created"`
	Items       []Item    `json:"items"`
}

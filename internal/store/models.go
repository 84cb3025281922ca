package store

import "time"

// RoomSnapshot is the last saved state of a room, serialised as JSON.
type RoomSnapshot struct {
	RoomID        string    `gorm:"primaryKey;size:64"`
	Name          string    `gorm:"size:128"`
	Status        string    `gorm:"size:16;index"`
	HandNumber    int
	EventSequence uint64
	State         string `gorm:"type:text"`
	UpdatedAt     time.Time
}

func (RoomSnapshot) TableName() string {
	return "room_snapshots"
}

// HandResult records how one hand ended.
type HandResult struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID     string    `gorm:"size:64;index:idx_hand_results_room_hand" json:"roomId"`
	HandNumber int       `gorm:"index:idx_hand_results_room_hand" json:"handNumber"`
	Showdown   bool      `json:"showdown"`
	Pot        int       `json:"pot"`
	Board      string    `gorm:"size:32" json:"board"`
	Winners    string    `gorm:"type:text" json:"winners"`
	Sequence   uint64    `json:"sequence"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (HandResult) TableName() string {
	return "hand_results"
}

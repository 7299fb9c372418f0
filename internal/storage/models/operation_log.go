package models

import (
	"time"

	"github.com/google/uuid"
)

// OperationLog is the audit record of one device operation. It holds
// metadata only; request and response bytes are never stored.
type OperationLog struct {
	OperationID uuid.UUID `gorm:"type:uuid;primary_key;" json:"operationId"`
	Device      string    `gorm:"type:varchar(100);index" json:"device"`
	Operation   string    `gorm:"type:varchar(64)" json:"operation"`
	Instruction uint8     `json:"instruction"`
	Frames      int       `json:"frames"`
	Parts       int       `json:"parts"`
	Status      string    `gorm:"type:varchar(32)" json:"status"`
	StatusWord  uint16    `json:"statusWord"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

package paper

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Paper is the persisted metadata for one research paper.
type Paper struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ArxivID    string    `gorm:"uniqueIndex;size:32" json:"arxiv_id"`
	Title      string    `gorm:"size:512;not null" json:"title"`
	Abstract   string    `gorm:"type:text" json:"abstract"`
	Authors    []string  `gorm:"serializer:json" json:"authors"`
	Categories []string  `gorm:"serializer:json" json:"categories"`
	Published  time.Time `json:"published"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name stable across drivers.
func (Paper) TableName() string {
	return "papers"
}

// BeforeCreate assigns a UUID when the caller left ID empty.
func (p *Paper) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// AgentID returns the registry ID for this paper's agent.
func (p *Paper) AgentID() string {
	return "paper-" + p.ID
}

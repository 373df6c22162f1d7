package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DevelopmentProject is an informational page for a project that is not
// yet tradable: pipeline projects shown for marketing purposes only.
type DevelopmentProject struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`
	Title        string         `gorm:"not null" json:"title"`
	Country      string         `json:"country"`
	Region       string         `json:"region"`
	Methodology  string         `json:"methodology"`
	Summary      string         `json:"summary"`
	Body         string         `json:"body"`
	HeroImageURL string         `json:"hero_image_url,omitempty"`
	SDGs         pq.StringArray `gorm:"type:text[]" json:"sustainable_development_goals"`
	Stage        string         `gorm:"not null;default:'IN_DEVELOPMENT'" json:"stage"`
	Published    bool           `gorm:"not null;default:false" json:"published"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

package models

import (
	"time"

	"github.com/julianstephens/growthtrack/internal/validation"
)

// Skill tracks proficiency in an area on a 1-100 scale
type Skill struct {
	SkillID     string    `json:"skill_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Category    *string   `json:"category,omitempty"`
	Level       int       `json:"level"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewSkill() *Skill {
	return &Skill{Level: 1}
}

func (s *Skill) Validate() error {
	return validation.First(
		validation.Name("name", s.Name),
		validation.Range("level", s.Level, 1, 100),
	)
}

func (s *Skill) Label() string { return s.Name }

package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultPlan = "Free"

type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Password  []byte    `db:"password" json:"-"`
	Credits   int       `db:"credits" json:"credits"`
	Plan      string    `db:"plan" json:"plan"`
	CreatedAt time.Time `db:"created_at,omitempty" json:"created_at,omitempty"`
	LastLogin time.Time `db:"last_login,omitempty" json:"last_login,omitempty"`
}

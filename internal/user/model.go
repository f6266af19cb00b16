package user

import "time"

type User struct {
	ID        uint
	Email     string
	Password  string
	Name      string
	Phone     *string
	CreatedAt time.Time
}

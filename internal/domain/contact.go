package domain

import "time"

// Contact is an address book entry owned by one user.
type Contact struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	FirstName   string    `json:"firstname"`
	LastName    string    `json:"lastname"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Birthday    Date      `json:"birthday"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContactFields are the user-editable fields of a contact. Updates replace
// all of them.
type ContactFields struct {
	FirstName   string `json:"firstname" validate:"required,min=1,max=50"`
	LastName    string `json:"lastname" validate:"max=50"`
	Email       string `json:"email" validate:"required,email,max=250"`
	Phone       string `json:"phone" validate:"required,max=20"`
	Birthday    Date   `json:"birthday" validate:"required"`
	Description string `json:"description" validate:"max=250"`
}

// Apply overwrites every editable field of c with f.
func (c *Contact) Apply(f ContactFields) {
	c.FirstName = f.FirstName
	c.LastName = f.LastName
	c.Email = f.Email
	c.Phone = f.Phone
	c.Birthday = f.Birthday
	c.Description = f.Description
}

// ListFilter selects a page of one owner's contacts.
type ListFilter struct {
	Limit  int
	Offset int
	Search string
}

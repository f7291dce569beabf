package user

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
)

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

type User struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Age        int      `json:"age"`
	Email      string   `json:"email"`
	DOB        string   `json:"dob"`
	ProfilePic *string  `json:"profilePic"`
	Gender     string   `json:"gender"`
	Skills     []string `json:"skills"`
	Bio        string   `json:"bio"`
}

// Field returns the display text of an attribute for table cells.
func (u User) Field(key string) string {
	switch key {
	case "id":
		return strconv.Itoa(u.ID)
	case "name":
		return u.Name
	case "age":
		return strconv.Itoa(u.Age)
	case "email":
		return u.Email
	case "dob":
		return u.DOB
	case "profilePic":
		if u.ProfilePic != nil {
			return *u.ProfilePic
		}
		return ""
	case "gender":
		return u.Gender
	case "skills":
		return strings.Join(u.Skills, ",")
	case "bio":
		return u.Bio
	}
	return ""
}

// Values returns the record as form values keyed by field name.
func (u User) Values() map[string][]string {
	values := map[string][]string{
		"name":   {u.Name},
		"age":    {strconv.Itoa(u.Age)},
		"email":  {u.Email},
		"dob":    {u.DOB},
		"gender": {u.Gender},
		"skills": u.Skills,
		"bio":    {u.Bio},
	}
	if u.ProfilePic != nil {
		values["profilePic"] = []string{*u.ProfilePic}
	}
	return values
}

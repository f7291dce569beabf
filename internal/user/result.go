package user

import "github.com/gofiber/fiber/v2"

type ResultKind string

const (
	ResultSuccess       ResultKind = "success"
	ResultValidation    ResultKind = "validation"
	ResultInvalidIntent ResultKind = "invalid_intent"
	ResultConflict      ResultKind = "conflict"
	ResultNotFound      ResultKind = "not_found"
	ResultFailure       ResultKind = "failure"
)

const (
	msgCreated       = "User created successfully!"
	msgUpdated       = "User updated successfully!"
	msgDeleted       = "User deleted successfully!"
	msgRequired      = "All fields are required"
	msgInvalidAction = "Invalid action"
	msgEmailExists   = "Email already exists"
	msgNotFound      = "User not found"
	msgFailure       = "Something went wrong!"
)

// doneMessage is the banner for a completed intent, carried across the
// redirect after an HTML submission as /?done=<intent>.
func doneMessage(intent string) string {
	switch intent {
	case IntentCreate:
		return msgCreated
	case IntentUpdate:
		return msgUpdated
	case IntentDelete:
		return msgDeleted
	default:
		return ""
	}
}

// Result is the outcome of a dispatched action.
type Result struct {
	Kind    ResultKind
	Message string
	// Fields names the inputs that failed validation.
	Fields []string
	// User is the stored record after a successful create or update.
	User *User
}

func (r Result) OK() bool { return r.Kind == ResultSuccess }

func (r Result) Status() int {
	switch r.Kind {
	case ResultSuccess:
		return fiber.StatusOK
	case ResultValidation, ResultInvalidIntent:
		return fiber.StatusBadRequest
	case ResultConflict:
		return fiber.StatusConflict
	case ResultNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (r Result) body() map[string]any {
	if r.OK() {
		return map[string]any{"success": r.Message}
	}
	body := map[string]any{"error": r.Message}
	if len(r.Fields) > 0 {
		body["fields"] = r.Fields
	}
	return body
}

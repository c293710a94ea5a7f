// Package validation checks DTOs and configuration before they are sent
// or used.
//
// Struct tags are evaluated with go-playground/validator:
//
//	type Task struct {
//	    Name string    `json:"name" validate:"required,max=256"`
//	    Guid uuid.UUID `json:"guid"`
//	}
//	err := validation.Validate(task)
//
// Checks that tags cannot express are collected programmatically:
//
//	v := validation.New()
//	v.RequiredUUID("guid", arg)
//	err := v.Err()
//
// Both return an *Error listing every offending field.
package validation

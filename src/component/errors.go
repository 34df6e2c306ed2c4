package component

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownComponent = errors.New("unknown component")
	ErrNoHTMLSupport    = errors.New("component doesn't support html content")
	ErrNoFileSupport    = errors.New("component doesn't support file link replacement")
)

// Row referenced by the identity doesn't exist
type NotFoundError struct {
	Component string
	Table     string
	Field     string
	Id        int64
}

func (self *NotFoundError) Error() string {
	return fmt.Sprintf("invalid component ident: component=%s&table=%s&field=%s&id=%d", self.Component, self.Table, self.Field, self.Id)
}

// Field isn't one of the fields declared for the table
type InvalidFieldError struct {
	Table string
	Field string
}

func (self *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %s is not allowed for the table %s", self.Field, self.Table)
}

// Table isn't handled by the component
type InvalidTableError struct {
	Component string
	Table     string
}

func (self *InvalidTableError) Error() string {
	return fmt.Sprintf("table %s is not allowed for the component %s", self.Table, self.Component)
}

// IsInvalidIdentity is true when the table or field can't hold content of the component
func IsInvalidIdentity(err error) bool {
	var (
		table *InvalidTableError
		field *InvalidFieldError
	)
	return errors.As(err, &table) || errors.As(err, &field)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

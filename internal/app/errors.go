package app

import "fmt"

// DomainError carries an HTTP-mappable failure out of the service layer.
type DomainError struct {
	Status  int
	Code    int
	Message string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func domainError(status, code int, message string) *DomainError {
	return &DomainError{Status: status, Code: code, Message: message}
}

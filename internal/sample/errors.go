package sample

import "fmt"

// Error codes for sampling failures.
const (
	ErrDomainBounds = "E401" // non-finite bounds or start >= stop
	ErrDomainCount  = "E402" // sample count too small or mismatched
	ErrDomainSyntax = "E403" // malformed range text
	ErrChannels     = "E404" // vector function returned the wrong shape
)

// DomainError reports an invalid domain or sample request.
type DomainError struct {
	Code    string
	Name    string // domain name, empty when not tied to one
	Message string
}

func (e *DomainError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] domain %s: %s", e.Code, e.Name, e.Message)
}

package api_v1

import "fmt"

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

type NotFoundError struct {
	Kind string
	Id   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

// DispatchError reports that at least one generation request of a batch
// failed. Failures holds the error of every failed request.
type DispatchError struct {
	Failures []error
}

func (e DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed for %d request(s): %v", len(e.Failures), e.Failures)
}

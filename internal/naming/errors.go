package naming

import "fmt"

// DescriptorError reports a short descriptor that breaks the title grammar.
type DescriptorError struct {
	Descriptor string
	Message    string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("invalid short descriptor %q: %s", e.Descriptor, e.Message)
}

// TitleError reports a title that does not follow the five-segment format.
type TitleError struct {
	Title   string
	Message string
	Cause   error
}

func (e *TitleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid title %q: %s: %v", e.Title, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid title %q: %s", e.Title, e.Message)
}

func (e *TitleError) Unwrap() error {
	return e.Cause
}

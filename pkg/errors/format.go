package errors

import "fmt"

// Errorf is a shortcut to fmt.Errorf
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

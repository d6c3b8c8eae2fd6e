package document

import "fmt"

// ConfigLoadError reports that the dashboard document could not be read or
// did not have the expected shape.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load dashboard document: %v", e.Err)
	}
	return fmt.Sprintf("load dashboard document %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// ValidationError reports caller-supplied input that was rejected before
// the document was touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports that no panel carries the requested id.
type NotFoundError struct {
	PanelID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Panel with ID %s not found", e.PanelID)
}

// PersistError reports a failure writing the updated document back to disk.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist dashboard document %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

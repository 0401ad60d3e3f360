package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound is matched by lookups that found nothing and by 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a create would clobber an existing object.
	ErrConflict = errors.New("conflicting data")
	// ErrAmbiguous is returned when a lookup by name matched more than one object.
	ErrAmbiguous = errors.New("ambiguous request")
)

// RequestError reports a request that GeoServer answered with an unexpected status.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, strings.TrimSpace(e.Body))
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *RequestError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// UploadError reports a rejected file upload (shapefile bundle, GeoTIFF, SLD).
type UploadError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload to %s failed with status %d: %s", e.URL, e.StatusCode, strings.TrimSpace(e.Body))
}

// AmbiguousError lists the objects a name lookup could not choose between.
type AmbiguousError struct {
	Kind    string
	Name    string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("multiple %ss found named %q: %s", e.Kind, e.Name, strings.Join(e.Matches, ", "))
}

func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

func notFound(kind, name string) error {
	return fmt.Errorf("no %s named %q: %w", kind, name, ErrNotFound)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
)

// ExportFormat represents a supported rendering for evidence card snapshots
type ExportFormat struct {
	format string
}

// Supported export formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var (
	// Map of format to MIME types
	formatMimeTypes = map[string]string{
		FormatJSON: "application/json",
		FormatCSV:  "text/csv",
	}

	// Map of format to file extensions
	formatExtensions = map[string]string{
		FormatJSON: ".json",
		FormatCSV:  ".csv",
	}

	// Supported formats for validation
	supportedFormats = map[string]bool{
		FormatJSON: true,
		FormatCSV:  true,
	}

	// Human-readable format names
	formatNames = map[string]string{
		FormatJSON: "JSON",
		FormatCSV:  "CSV",
	}
)

// NewExportFormat creates a new ExportFormat value object with validation
func NewExportFormat(format string) (ExportFormat, error) {
	if format == "" {
		return ExportFormat{}, errors.NewValidationError("EMPTY_FORMAT",
			"export format cannot be empty")
	}

	// Normalize format
	normalized := strings.ToLower(strings.TrimSpace(format))

	// Remove leading dot if present
	if strings.HasPrefix(normalized, ".") {
		normalized = normalized[1:]
	}

	if !supportedFormats[normalized] {
		return ExportFormat{}, errors.NewValidationError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("export format '%s' is not supported", format))
	}

	return ExportFormat{format: normalized}, nil
}

// NewExportFormatFromFilename creates ExportFormat from a filename extension
func NewExportFormatFromFilename(filename string) (ExportFormat, error) {
	if filename == "" {
		return ExportFormat{}, errors.NewValidationError("EMPTY_FILENAME",
			"filename cannot be empty")
	}

	extension := filepath.Ext(filename)
	if extension == "" {
		return ExportFormat{}, errors.NewValidationError("NO_EXTENSION",
			"filename must have an extension")
	}

	return NewExportFormat(extension)
}

// MustNewExportFormat creates ExportFormat and panics on error (for constants/tests)
func MustNewExportFormat(format string) ExportFormat {
	ef, err := NewExportFormat(format)
	if err != nil {
		panic(err)
	}
	return ef
}

// Standard export formats
func JSONFormat() ExportFormat {
	return MustNewExportFormat(FormatJSON)
}

func CSVFormat() ExportFormat {
	return MustNewExportFormat(FormatCSV)
}

// String returns the format string
func (ef ExportFormat) String() string {
	return ef.format
}

// IsEmpty checks if the format is empty
func (ef ExportFormat) IsEmpty() bool {
	return ef.format == ""
}

// Equal checks if two ExportFormat values are equal
func (ef ExportFormat) Equal(other ExportFormat) bool {
	return ef.format == other.format
}

// MimeType returns the MIME type for the format
func (ef ExportFormat) MimeType() string {
	if mimeType, ok := formatMimeTypes[ef.format]; ok {
		return mimeType
	}
	return "application/octet-stream"
}

// Extension returns the file extension for the format
func (ef ExportFormat) Extension() string {
	if extension, ok := formatExtensions[ef.format]; ok {
		return extension
	}
	return ".bin"
}

// Name returns the human-readable name for the format
func (ef ExportFormat) Name() string {
	if name, ok := formatNames[ef.format]; ok {
		return name
	}
	return strings.ToUpper(ef.format)
}

// FormatDisplay returns a formatted string for display
func (ef ExportFormat) FormatDisplay() string {
	if ef.IsEmpty() {
		return "<invalid>"
	}
	return fmt.Sprintf("%s (%s)", ef.Name(), ef.Extension())
}

// MarshalJSON implements JSON marshaling
func (ef ExportFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(ef.format)
}

// UnmarshalJSON implements JSON unmarshaling
func (ef *ExportFormat) UnmarshalJSON(data []byte) error {
	var format string
	if err := json.Unmarshal(data, &format); err != nil {
		return err
	}

	exportFormat, err := NewExportFormat(format)
	if err != nil {
		return err
	}

	*ef = exportFormat
	return nil
}

// Value implements driver.Valuer for database storage
func (ef ExportFormat) Value() (driver.Value, error) {
	if ef.format == "" {
		return nil, nil
	}
	return ef.format, nil
}

// Scan implements sql.Scanner for database retrieval
func (ef *ExportFormat) Scan(value interface{}) error {
	if value == nil {
		*ef = ExportFormat{}
		return nil
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into ExportFormat", value)
	}

	if str == "" {
		*ef = ExportFormat{}
		return nil
	}

	exportFormat, err := NewExportFormat(str)
	if err != nil {
		return err
	}

	*ef = exportFormat
	return nil
}

// GetSupportedFormats returns all supported export formats
func GetSupportedFormats() []string {
	formats := make([]string, 0, len(supportedFormats))
	for format := range supportedFormats {
		formats = append(formats, format)
	}
	return formats
}

// ValidateExportFormat validates that a string could be a valid export format
func ValidateExportFormat(format string) error {
	_, err := NewExportFormat(format)
	return err
}

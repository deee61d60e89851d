// internal/app/system/limits/limits.go
package limits

// Request body and list size limits.
const (
	// MaxFormSize caps ordinary form submissions.
	MaxFormSize = 1 << 20 // 1 MB

	// MaxListRows caps joined lists that are built in memory
	// (trainee list, exports).
	MaxListRows = 2000

	// MaxReportContent is the longest report body accepted, in characters.
	MaxReportContent = 20000
)

package apierror

// Error type URIs following the urn:habitflow:error:* pattern.
// These are used as the "type" field in RFC 9457 Problem Details.
const (
	// TypeValidation indicates request validation failed (400)
	TypeValidation = "urn:habitflow:error:validation"

	// TypeNotFound indicates the requested resource was not found (404)
	TypeNotFound = "urn:habitflow:error:not_found"

	// TypeInvalidSchedule indicates an unusable recurrence rule or an
	// out-of-range date on a check-in (400)
	TypeInvalidSchedule = "urn:habitflow:error:invalid_schedule"

	// TypeConflict indicates a resource conflict (409)
	TypeConflict = "urn:habitflow:error:conflict"

	// TypeUnauthorized indicates missing or invalid authentication (401)
	TypeUnauthorized = "urn:habitflow:error:unauthorized"

	// TypeForbidden indicates insufficient permissions (403)
	TypeForbidden = "urn:habitflow:error:forbidden"

	// TypeInternal indicates an unexpected server error (500)
	TypeInternal = "urn:habitflow:error:internal"

	// TypeBadRequest indicates a malformed or invalid request (400)
	TypeBadRequest = "urn:habitflow:error:bad_request"
)

// Titles for each error type - human-readable summaries
const (
	TitleValidation      = "Validation Error"
	TitleNotFound        = "Resource Not Found"
	TitleInvalidSchedule = "Invalid Schedule"
	TitleConflict        = "Resource Conflict"
	TitleUnauthorized    = "Authentication Required"
	TitleForbidden       = "Permission Denied"
	TitleInternal        = "Internal Server Error"
	TitleBadRequest      = "Bad Request"
)

package types

// RecipeForm binds the multipart form of POST and PUT /api/recipes.
// Title is validated in the service so the error shape is uniform.
type RecipeForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Ingredients string `form:"ingredients"`
	Steps       string `form:"steps"`
	Category    string `form:"category"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// Error kinds carried in ErrorResponse.Error
const (
	ErrKindValidation     = "validation_error"
	ErrKindNotFound       = "not_found"
	ErrKindUnauthorized   = "unauthorized"
	ErrKindRateLimited    = "rate_limited"
	ErrKindInternal       = "internal_error"
	ErrKindPayloadInvalid = "invalid_request"
)

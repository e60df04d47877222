package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "Invalid request format",
		Details: "invalid_request",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status:  "error",
		Error:   "Invalid email or password",
		Details: "authentication_failed",
	}

	ErrInvalidToken = ErrorResponse{
		Status:  "error",
		Error:   "Invalid token",
		Details: "invalid_token",
	}

	ErrUserAlreadyExists = ErrorResponse{
		Status:  "error",
		Error:   "User already exists",
		Details: "user_already_exists",
	}

	ErrUserNotFound = ErrorResponse{
		Status:  "error",
		Error:   "User not found",
		Details: "user_not_found",
	}

	ErrImageNotFound = ErrorResponse{
		Status:  "error",
		Error:   "Image not found",
		Details: "image_not_found",
	}

	ErrMissingImageFields = ErrorResponse{
		Status:  "error",
		Error:   "Missing required fields (title, category, url, prompt)",
		Details: "invalid_image",
	}

	ErrNoFile = ErrorResponse{
		Status:  "error",
		Error:   "No file part",
		Details: "invalid_upload",
	}

	ErrFileTooLarge = ErrorResponse{
		Status:  "error",
		Error:   "File is too large",
		Details: "invalid_upload",
	}

	ErrInvalidFileType = ErrorResponse{
		Status:  "error",
		Error:   "Unsupported file type",
		Details: "invalid_upload",
	}

	ErrTooManyRequests = ErrorResponse{
		Status:  "error",
		Error:   "Too many requests",
		Details: "rate_limited",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "Internal server error",
		Details: "internal_error",
	}
)

package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  StatusError,
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status: StatusError,
		Error:  "authentication_failed",
	}

	ErrUnauthorized = ErrorResponse{
		Status:  StatusError,
		Error:   "Unauthorized",
		Details: "Authentication required",
	}

	ErrInvalidRegisterRequest = ErrorResponse{
		Status:  StatusError,
		Error:   "invalid_register_request",
		Details: "Invalid registration data",
	}

	ErrUserAlreadyExists = ErrorResponse{
		Status:  StatusError,
		Error:   "user_already_exists",
		Details: "User with this email already exists",
	}

	ErrNoFile = ErrorResponse{
		Status: StatusError,
		Error:  "No file provided",
	}

	ErrPhotoNotFound = ErrorResponse{
		Status: StatusError,
		Error:  "photo_not_found",
	}

	ErrAlbumNotFound = ErrorResponse{
		Status: StatusError,
		Error:  "album_not_found",
	}

	ErrInternal = ErrorResponse{
		Status: StatusError,
		Error:  "internal_error",
	}
)

package response

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response общий конверт успешного ответа. Data для отменённого изменения профиля тоже
// передаётся в этом конверте со Status = "error".
type Response struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func SuccessResponse(data any) Response {
	return Response{
		Status: StatusSuccess,
		Data:   data,
	}
}

func ErrorResponseWithDetails(err, details string) ErrorResponse {
	return ErrorResponse{
		Status:  StatusError,
		Error:   err,
		Details: details,
	}
}

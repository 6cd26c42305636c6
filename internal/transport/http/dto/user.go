package dto

// UserRegisterInput содержит данные для регистрации пользователя
type UserRegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64"`
	FullName string `json:"full_name" validate:"max=100"`
}

package models

// TokenPair пара JWT: короткий access и refresh, который хранится в Redis
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

package model

// Token is the response of POST /token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type UserCreate struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

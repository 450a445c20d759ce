package model

type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RePassword string `json:"re_password"`
}

type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// Session is derived from the stored tokens; User is set only when the access token decodes.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

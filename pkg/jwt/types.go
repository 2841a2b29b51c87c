package jwt

// Config holds JWT configuration.
type Config struct {
	SecretKey string
}

// Claims is the validated claim set the hub cares about.
type Claims struct {
	UserID string // "sub" claim, the authenticated user id
	Name   string // optional "name" claim, display name
	Exp    int64  // expiration time
}

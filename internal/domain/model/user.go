package model

// Role is the authorization role carried by the caller's token.
type Role string

const (
	RoleAnonymous Role = ""
	RoleCustomer  Role = "USER"
	RoleAdmin     Role = "ADMIN"
)

package dto

// AdminRoleUpdateRequest grants or revokes a user's admin flag.
type AdminRoleUpdateRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

// AdminUserQuery filters the admin user listing.
type AdminUserQuery struct {
	Search string `query:"search" validate:"omitempty,max=128"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

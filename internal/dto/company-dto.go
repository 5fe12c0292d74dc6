package dto

type CreateCompanyDTO struct {
	Name          string `json:"name" validate:"required,min=1,max=150"`
	Email         string `json:"email" validate:"omitempty,email"`
	OwnerFio      string `json:"owner_fio" validate:"required,min=1"`
	OwnerEmail    string `json:"owner_email" validate:"required,email"`
	OwnerPassword string `json:"owner_password" validate:"required,min=8"`
}

type CompanyDTO struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Email     *string `json:"email,omitempty"`
	IsActive  bool    `json:"is_active"`
	CreatedAt *string `json:"created_at,omitempty"`

	// Дивизион по умолчанию, созданный при онбординге.
	GeneralDivision *ShortDivisionDTO `json:"general_division,omitempty"`
	OwnerUserID     uint64            `json:"owner_user_id,omitempty"`
}

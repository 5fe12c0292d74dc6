package utils

import (
	"context"

	"crm-system/pkg/contextkeys"
	apperrors "crm-system/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

// GetCompanyIDFromCtx возвращает проверенный tenant id, положенный auth-middleware.
// Ядро доверяет этому значению, само оно компанию не резолвит.
func GetCompanyIDFromCtx(ctx context.Context) (uint64, error) {
	companyID, ok := ctx.Value(contextkeys.CompanyIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrCompanyIDNotFoundInContext
	}
	return companyID, nil
}

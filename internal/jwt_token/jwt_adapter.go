package jwttoken

import (
	"cikyc/internal/platform/middleware"
	id "cikyc/pkg/domain"
)

// JWTServiceAdapter bridges JWTService to the middleware.JWTValidator
// interface so the middleware package stays free of jwt library types.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID:  userID,
		Email:   claims.Email,
		Name:    claims.Name,
		Role:    claims.Role,
		TokenID: claims.ID,
	}, nil
}

package jwttoken

// CallerValidator exposes the JWT service to the HTTP middleware, which only
// needs the caller identity.
type CallerValidator struct {
	service *JWTService
}

func NewCallerValidator(service *JWTService) *CallerValidator {
	return &CallerValidator{service: service}
}

func (a *CallerValidator) ValidateCaller(tokenString string) (string, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Caller(), nil
}

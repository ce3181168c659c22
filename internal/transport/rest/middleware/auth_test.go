package middleware

import (
	"auticonnect/internal/model"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errBad = errors.New("invalid")

type stubValidator struct{}

func (stubValidator) ValidateOperatorToken(token string) (*model.OperatorClaims, error) {
	if token != "op" {
		return nil, errBad
	}
	return &model.OperatorClaims{OperatorID: "op_1"}, nil
}

func (stubValidator) ValidateProfessionalToken(token string) (*model.ProfessionalClaims, error) {
	if token != "pro" {
		return nil, errBad
	}
	return &model.ProfessionalClaims{UserID: "p1"}, nil
}

func serve(mw func(http.Handler) http.Handler, authHeader string) (*httptest.ResponseRecorder, *http.Request) {
	var seen *http.Request
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest("GET", "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireOperator(t *testing.T) {
	m := NewAuthMiddleware(stubValidator{})

	rec, req := serve(m.RequireOperator, "Bearer op")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "op_1", GetOperatorID(req.Context()))

	rec, _ = serve(m.RequireOperator, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(m.RequireOperator, "Bearer pro")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(m.RequireOperator, "Basic op")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireStaffAcceptsBothRoles(t *testing.T) {
	m := NewAuthMiddleware(stubValidator{})

	rec, req := serve(m.RequireStaff, "Bearer pro")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", GetProfessionalID(req.Context()))
	assert.Empty(t, GetOperatorID(req.Context()))

	rec, req = serve(m.RequireStaff, "bearer op")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "op_1", GetOperatorID(req.Context()))

	rec, _ = serve(m.RequireStaff, "Bearer nobody")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

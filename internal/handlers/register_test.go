package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

func validRegisterRequest() map[string]any {
	return map[string]any{
		"username":    "alice01",
		"firstName":   "Alice",
		"lastName":    "Smith",
		"email":       "alice@x.com",
		"phoneNumber": "123456789",
		"address":     "1 Main St",
		"category":    "Home",
		"password":    "secret1",
	}
}

func TestRegisterHandler(t *testing.T) {
	expectedReg := models.Registration{
		Username:    "alice01",
		FirstName:   "Alice",
		LastName:    "Smith",
		Email:       "alice@x.com",
		PhoneNumber: "123456789",
		Address:     "1 Main St",
		Category:    "Home",
		Password:    "secret1",
	}

	tests := []struct {
		name         string
		body         any
		mockSetup    func(m *MockRegisterer)
		expectedCode int
		expectedBody map[string]any
	}{
		{
			name: "success",
			body: validRegisterRequest(),
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().Register(gomock.Any(), expectedReg).Return("token123", nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: map[string]any{"message": "User registered successfully", "token": "token123"},
		},
		{
			name: "user already exists",
			body: validRegisterRequest(),
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().Register(gomock.Any(), expectedReg).Return("", services.ErrUserAlreadyExists)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]any{"error": "Username or email already exists"},
		},
		{
			name: "internal server error",
			body: validRegisterRequest(),
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().Register(gomock.Any(), expectedReg).Return("", errors.New("database failure"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: map[string]any{"error": "Internal server error"},
		},
		{
			name:         "invalid json",
			body:         "{invalid json}",
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]any{"error": "Invalid request body"},
		},
		{
			name: "unknown field",
			body: func() map[string]any {
				b := validRegisterRequest()
				b["isAdmin"] = true
				return b
			}(),
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]any{"error": "Invalid request body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSvc := NewMockRegisterer(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(mockSvc)
			}

			rr := httptest.NewRecorder()
			NewRegisterHandler(mockSvc)(rr, newJSONRequest(t, http.MethodPost, "/register", tt.body))

			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.Equal(t, tt.expectedBody, decodeBody(t, rr))
		})
	}
}

func TestRegisterHandler_Validation(t *testing.T) {
	tests := []struct {
		field string
		value any
	}{
		{"username", "abcd"},
		{"username", "abcdefghijk"},
		{"username", "bad-name"},
		{"phoneNumber", "12345678"},
		{"phoneNumber", "12345678a"},
		{"password", "short"},
		{"password", "has space1"},
		{"category", "Office"},
		{"email", "not-an-email"},
		{"firstName", ""},
		{"phoneNumber", 123456789},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			body := validRegisterRequest()
			body[tt.field] = tt.value

			rr := httptest.NewRecorder()
			NewRegisterHandler(NewMockRegisterer(ctrl))(rr, newJSONRequest(t, http.MethodPost, "/register", body))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

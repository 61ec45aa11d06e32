package handler

import (
	"testing"

	"relinker/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParseCredentials(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		expectedAPIID   int
		expectedAPIHash string
		expectedPhone   string
		expectedError   bool
	}{
		{
			name:            "standard format",
			text:            "api_id 123456\napi_hash abcdef0123456789\nphone +1234567890",
			expectedAPIID:   123456,
			expectedAPIHash: "abcdef0123456789",
			expectedPhone:   "+1234567890",
		},
		{
			name:            "lines in any order",
			text:            "phone +49123\napi_hash deadbeef\napi_id 42",
			expectedAPIID:   42,
			expectedAPIHash: "deadbeef",
			expectedPhone:   "+49123",
		},
		{
			name:            "extra whitespace and blank lines",
			text:            "api_id   123456\n\n  api_hash   abcdef  \nphone\t+111\n",
			expectedAPIID:   123456,
			expectedAPIHash: "abcdef",
			expectedPhone:   "+111",
		},
		{
			name:            "uppercase keys",
			text:            "API_ID 123456\nAPI_HASH abcdef\nPHONE +111",
			expectedAPIID:   123456,
			expectedAPIHash: "abcdef",
			expectedPhone:   "+111",
		},
		{
			name:          "non-numeric api_id",
			text:          "api_id abc\napi_hash abcdef\nphone +111",
			expectedError: true,
		},
		{
			name:          "missing phone",
			text:          "api_id 123456\napi_hash abcdef",
			expectedError: true,
		},
		{
			name:          "missing api_hash",
			text:          "api_id 123456\nphone +111",
			expectedError: true,
		},
		{
			name:          "key without value",
			text:          "api_id 123456\napi_hash\nphone +111",
			expectedError: true,
		},
		{
			name:          "empty message",
			text:          "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiID, apiHash, phone, err := parseCredentials(tt.text)

			if tt.expectedError {
				assert.ErrorIs(t, err, domain.ErrCredentialParse)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedAPIID, apiID)
			assert.Equal(t, tt.expectedAPIHash, apiHash)
			assert.Equal(t, tt.expectedPhone, phone)
		})
	}
}

package shared

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     error
		errContains string
	}{
		{name: "valid json", body: `{"name": "test", "age": 30}`},
		{name: "invalid json", body: `{"name": "test", "age": 30,}`, errContains: "invalid character"},
		{name: "empty body", body: "", wantErr: ErrEmptyBody},
		{name: "wrong type", body: `{"age": "thirty"}`, errContains: "cannot unmarshal"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.body))

			var got samplePayload
			err := DecodeJSON(req, &got)

			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.errContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
			default:
				require.NoError(t, err)
				assert.Equal(t, samplePayload{Name: "test", Age: 30}, got)
			}
		})
	}
}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	var target samplePayload
	err := DecodeJSON(req, &target)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"name": "` + strings.Repeat("a", MaxRequestBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))

	var target samplePayload
	assert.Error(t, DecodeJSON(req, &target))
}

type selfValidating struct {
	Name string
}

func (v *selfValidating) Validate() error {
	if v.Name == "invalid" {
		return errors.New("name is invalid")
	}
	return nil
}

type tagged struct {
	Name string `validate:"required"`
	Age  int    `validate:"gte=18"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		wantErr bool
	}{
		{name: "self validating ok", req: &selfValidating{Name: "test"}},
		{name: "self validating failure", req: &selfValidating{Name: "invalid"}, wantErr: true},
		{name: "struct tags ok", req: &tagged{Name: "test", Age: 20}},
		{name: "struct tags failure", req: &tagged{Age: 12}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.req)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRequestReportsFields(t *testing.T) {
	err := ValidateRequest(&tagged{Age: 12})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, "Name", verrs[0].Field())
	assert.Equal(t, "required", verrs[0].Tag())
	assert.Equal(t, "Age", verrs[1].Field())
	assert.Equal(t, "gte", verrs[1].Tag())
}

type jsonTagged struct {
	DueDate string `json:"due_date,omitempty" validate:"required"`
	Secret  string `json:"-"                  validate:"required"`
}

func TestValidateRequestUsesJSONNames(t *testing.T) {
	err := ValidateRequest(&jsonTagged{})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, "due_date", verrs[0].Field())
	assert.Equal(t, "Secret", verrs[1].Field())
}

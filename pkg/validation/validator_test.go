package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email  string `json:"email" validate:"required,email"`
	Age    int    `json:"age" validate:"min=18,max=100"`
	Sex    string `json:"sex" validate:"sex"`
	IDType string `json:"valid_id_type" validate:"validid"`
	Code   string `json:"code" validate:"otpcode"`
}

func valid() sample {
	return sample{Email: "a@x.com", Age: 30, Sex: "Female", IDType: "UMID", Code: "048213"}
}

func TestFirstReportsDeclarationOrder(t *testing.T) {
	v := New()
	s := valid()
	s.Age = 17
	s.Sex = "Other"

	field, msg := First(v.Struct(s))
	assert.Equal(t, "age", field)
	assert.Equal(t, "must be at least 18", msg)
}

func TestCustomTags(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(valid()))

	s := valid()
	s.IDType = "Library Card"
	field, msg := First(v.Struct(s))
	assert.Equal(t, "valid_id_type", field)
	assert.Equal(t, "must be one of the accepted government IDs", msg)

	s = valid()
	s.Code = "12a456"
	field, msg = First(v.Struct(s))
	assert.Equal(t, "code", field)
	assert.Equal(t, "must be 6 digits", msg)
}

func TestToDetails(t *testing.T) {
	assert.Nil(t, ToDetails(nil))

	var out sample
	err := json.Unmarshal([]byte(`{"email":`), &out)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"age":"old"}`), &out)
	assert.Equal(t, map[string]string{"age": "must be a int"}, ToDetails(err))

	s := valid()
	s.Email = ""
	assert.Equal(t, map[string]string{"email": "is required"}, ToDetails(New().Struct(s)))
}

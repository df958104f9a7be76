package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type optionIn struct {
	Text string `json:"text" binding:"required"`
}

type questionIn struct {
	Difficulty string     `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Options    []optionIn `json:"options" binding:"required,min=2,dive"`
}

func bindBody(t *testing.T, body string) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var dst questionIn
	return Bind(c, &dst)
}

func TestBind_UsesJSONFieldPaths(t *testing.T) {
	fields := bindBody(t, `{"difficulty":"extreme","options":[{"text":"a"},{"text":""}]}`)
	assert.Contains(t, fields, "difficulty")
	assert.Contains(t, fields, "options[1].text")
	assert.NotContains(t, fields, "options[0].text")
}

func TestBind_ValidPayload(t *testing.T) {
	assert.Nil(t, bindBody(t, `{"difficulty":"easy","options":[{"text":"a"},{"text":"b"}]}`))
}

func TestTranslateErrors_NonValidationError(t *testing.T) {
	fields := TranslateErrors(errors.New("unexpected EOF"))
	assert.Equal(t, map[string]string{"detail": "unexpected EOF"}, fields)
}

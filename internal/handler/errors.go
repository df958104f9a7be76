package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examprep-backend/internal/casestudy"
	"github.com/stemsi/examprep-backend/internal/exam"
	"github.com/stemsi/examprep-backend/internal/model"
	"github.com/stemsi/examprep-backend/internal/response"
	"github.com/stemsi/examprep-backend/internal/service"
)

type errMapping struct {
	target error
	status int
	code   response.ErrCode
}

var errMappings = []errMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken},
	{service.ErrSessionInvalidated, http.StatusUnauthorized, response.ErrSessionInvalidated},
	{service.ErrSubscriptionRequired, http.StatusForbidden, response.ErrSubscriptionRequired},

	{service.ErrExamNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrResultNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrCategoryNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrBankNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrQuestionNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrNoteNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrCaseNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrUserNotFound, http.StatusNotFound, response.ErrNotFound},

	{service.ErrExamCompleted, http.StatusConflict, response.ErrExamCompleted},
	{service.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
	{service.ErrFinishInProgress, http.StatusConflict, response.ErrFinishInProgress},
	{service.ErrSessionBusy, http.StatusConflict, response.ErrSessionBusy},
	{service.ErrTimeUp, http.StatusConflict, response.ErrTimeUp},
	{exam.ErrSessionNotInProgress, http.StatusConflict, response.ErrSessionNotInProgress},
	{exam.ErrUnknownQuestion, http.StatusBadRequest, response.ErrUnknownQuestion},
	{exam.ErrUnknownOption, http.StatusBadRequest, response.ErrUnknownOption},

	{casestudy.ErrNotAnswering, http.StatusConflict, response.ErrCaseNotAnswering},
	{casestudy.ErrIndexRange, http.StatusBadRequest, response.ErrCaseIndexRange},
	{casestudy.ErrEmptyCase, http.StatusUnprocessableEntity, response.ErrCaseEmpty},
	{casestudy.ErrUnknownPrompt, http.StatusBadRequest, response.ErrUnknownQuestion},
}

// classify maps a service error to an HTTP status and code. Unknown errors are 500s.
func classify(err error) (int, response.ErrCode) {
	for _, m := range errMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// fail writes the envelope for err. Validation errors carry their fields; internal
// errors are attached to the context for the access log. An empty question selection
// answers 200 with a notice.
func fail(c *gin.Context, err error) {
	if errors.Is(err, exam.ErrNoQuestionsAvailable) {
		response.SuccessWithNotice(c, http.StatusOK, gin.H{"questions": []model.QuestionForLearner{}}, response.ErrNoQuestionsMatch)
		return
	}
	var verr *exam.ValidationError
	if errors.As(err, &verr) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, verr.Fields)
		return
	}
	var qerr *service.QuestionInvalidError
	if errors.As(err, &qerr) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrQuestionInvalid, map[string]string{"options": qerr.Error()})
		return
	}

	status, code := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.Fail(c, status, code)
}

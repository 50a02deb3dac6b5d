package admin

import (
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/LeventeLantos/relief-admin/internal/repo"
)

// inputError is a client mistake reported back with a 400.
type inputError struct {
	msg     string
	details []string
}

func (e *inputError) Error() string { return e.msg }

func badRequest(msg string, details ...string) error {
	return &inputError{msg: msg, details: details}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest("validation failed", err.Error())
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldMessage(fe))
	}
	return badRequest("validation failed", details...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "number":
		return fe.Field() + " must be a number"
	default:
		return fe.Field() + " is invalid"
	}
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return nil, badRequest("invalid id", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseFormID converts a validated numeric form value, rejecting values that do
// not fit a positive int64.
func parseFormID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("validation failed", field+" must be a positive id")
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id", raw)
	}
	return id, nil
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var in *inputError
	switch {
	case errors.As(err, &in):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": in.msg, "details": in.details})
	case errors.Is(err, ErrNoSelection):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, ErrUnknownEntity), errors.Is(err, ErrUnknownAction), errors.Is(err, repo.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	default:
		h.log.Error("admin request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ygrebnov/errorc"

	"go-batch-generator/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest checks a run request before any work starts
func ValidateRequest(req model.RunRequest) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return errorc.With(ErrInvalidRequest, errorc.String("fields", strings.Join(fields, ", ")))
		}
		return errorc.With(ErrInvalidRequest, errorc.String("error", err.Error()))
	}
	return nil
}

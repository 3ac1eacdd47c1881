package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ecomdash/backend/internal/interfaces/http/dto"
)

// RegionCodeTag validates a two letter upper-case state code such as SP
const RegionCodeTag = "region_code"

var regionCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

var setupValidatorOnce sync.Once

// SetupValidator registers the custom tags on gin's validator and makes
// errors name fields by their query, uri or json key
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldKey)
		_ = v.RegisterValidation(RegionCodeTag, func(fl validator.FieldLevel) bool {
			return IsRegionCode(fl.Field().String())
		})
	})
}

func fieldKey(fld reflect.StructField) string {
	for _, tag := range []string{"form", "uri", "json"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

// IsRegionCode reports whether s is a well formed region code
func IsRegionCode(s string) bool {
	return regionCodePattern.MatchString(s)
}

var tagMessages = map[string]string{
	"required":    "This field is required",
	RegionCodeTag: "Must be a two letter upper-case region code",
	"oneof":       "Must be one of: ",
	"max":         "Must be at most ",
}

// FormatValidationErrors builds the INVALID_INPUT envelope, one detail
// per failed field. Errors not produced by the validator yield no details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: messageFor(fe)})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

func messageFor(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.HasSuffix(msg, " ") {
		msg += fe.Param()
	}
	return msg
}

// HandleValidationError writes a 400 validation response
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

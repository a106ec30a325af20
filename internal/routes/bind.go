package routes

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	validatorOnce sync.Once
	validatorSvc  *requestValidator
)

// requestValidation returns the shared validator; messages use json field names.
func requestValidation() *requestValidator {
	validatorOnce.Do(func() {
		enLoc := en.New()
		trans, _ := ut.New(enLoc, enLoc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		validatorSvc = &requestValidator{validate: v, translator: trans}
	})
	return validatorSvc
}

// bindJSON parses the request body into dst and validates it.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	rv := requestValidation()
	if err := rv.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fe.Translate(rv.translator))
			}
			return fiber.NewError(http.StatusBadRequest, strings.Join(msgs, "; "))
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return nil
}

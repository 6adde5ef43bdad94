// Валидация запросов API редактора. Использует библиотеку go-playground/validator с собственными
// проверками формата документа и названия сессии.
//
// Основные возможности:
//   - Проверка формата документа (html, json).
//   - Проверка названия сессии на допустимые символы и длину.
package aiplan

import (
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator"
)

const (
	FormatHTML = "html"
	FormatJSON = "json"
)

var sessionTitleRegexp = regexp.MustCompile(`^[A-Za-zА-Яа-яёЁ0-9 ._\/\-\\!#\$%&'\"\(\)\*\+,\-.:;№<=>?@\[\\\]\^_\{\|\}~]*$`)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	if err := v.RegisterValidation("docFormat", docFormatValidator); err != nil {
		return nil
	}
	if err := v.RegisterValidation("sessionTitle", sessionTitleValidator); err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func docFormatValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || value == FormatHTML || value == FormatJSON
}

func sessionTitleValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return utf8.RuneCountInString(value) <= 200 && sessionTitleRegexp.MatchString(value)
}

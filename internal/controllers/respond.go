package controllers

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"taskboard-be/internal/apperr"
	"taskboard-be/internal/entities"
	"taskboard-be/internal/service"
)

const msgInvalidBody = "Invalid request body"

// bindingMessages maps a failed field (Struct.Field) to the message clients expect.
// A "Struct.Field.tag" entry takes precedence over the field-wide one.
var bindingMessages = map[string]string{
	"SignupRequest.Name":                    service.MsgInvalidName,
	"SignupRequest.Email":                   service.MsgInvalidEmail,
	"SignupRequest.Password":                service.MsgShortPassword,
	"LoginRequest.Email":                    service.MsgMissingCredentials,
	"LoginRequest.Password":                 service.MsgMissingCredentials,
	"ChangePasswordRequest.Email":           service.MsgMissingNewPassword,
	"ChangePasswordRequest.NewPassword":     service.MsgMissingNewPassword,
	"ChangePasswordRequest.NewPassword.min": service.MsgShortNewPassword,
	"CreateTaskRequest.Title":               service.MsgTitleRequired,
	"CreateTaskRequest.Status":              service.MsgInvalidStatus,
	"TaskPatch.Status":                      service.MsgInvalidStatus,
}

var registerOnce sync.Once

// customValidations are the binding tags the request models use beyond the built-in ones.
var customValidations = map[string]validator.Func{
	"taskstatus": func(fl validator.FieldLevel) bool {
		return entities.TaskStatus(fl.Field().String()).Valid()
	},
}

// RegisterValidators installs the custom binding rules used by the request models.
// It panics when they cannot be installed, since every bind using them would fail.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic("controllers: gin binding engine is not a *validator.Validate")
		}
		if err := registerValidations(v, customValidations); err != nil {
			panic(err)
		}
	})
}

func registerValidations(v *validator.Validate, rules map[string]validator.Func) error {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q validation: %w", tag, err)
		}
	}
	return nil
}

// bindJSON decodes the body into obj. An empty body is allowed when allowEmpty is set.
func bindJSON(c *gin.Context, obj any, allowEmpty bool) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Wrap(apperr.Validation(fieldMessage(verrs[0])), err)
	}
	return apperr.Wrap(apperr.Validation(msgInvalidBody), err)
}

func fieldMessage(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if msg, ok := bindingMessages[ns+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := bindingMessages[ns]; ok {
		return msg
	}
	return msgInvalidBody
}

// respondError writes the error envelope for err. Internal causes never reach the client.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.JSON(apperr.HTTPStatus(kind), gin.H{
		"success": false,
		"error":   apperr.Message(err),
	})
}

package account

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lrstanley/girc"
)

// Characters the web frontend never allowed in a nick, on top of what the
// IRC grammar already forbids.
const forbiddenNickChars = " ,*?.!:<>'\";#~&@%+-"

// Session identifies the gateway and the end user's address. It is sent in
// the WEBIRC line and never stored.
type Session struct {
	WebIRCPassword string `name:"webirc_password" validate:"required,ircmiddle"`
	RemoteIP       string `name:"remote_ip" validate:"required,ip"`
	Gateway        string `name:"gateway" validate:"omitempty,ircmiddle"`
}

type registerInput struct {
	Nick     string `name:"nick" validate:"required,max=300,ircnick"`
	Email    string `name:"email" validate:"required,email,ircmiddle"`
	Password string `name:"password" validate:"required,ircparam"`
}

type verifyInput struct {
	Nick string `name:"nick" validate:"required,max=300,ircnick"`
	Code string `name:"code" validate:"required,ircparam"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("name"); name != "" {
			return name
		}
		return fld.Name
	})

	v.RegisterValidation("ircnick", func(fl validator.FieldLevel) bool {
		nick := fl.Field().String()
		return girc.IsValidNick(nick) && !strings.ContainsAny(nick, forbiddenNickChars)
	})

	// Any parameter: must not break the line framing
	v.RegisterValidation("ircparam", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n\x00")
	})

	// A middle parameter additionally cannot contain spaces or start with ':'
	v.RegisterValidation("ircmiddle", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return !strings.ContainsAny(s, " \r\n\x00") && !strings.HasPrefix(s, ":")
	})

	return v
}

// check validates inputs and turns validation errors into a single
// InvalidInput result
func check(inputs ...interface{}) *Result {
	for _, in := range inputs {
		err := validate.Struct(in)
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			res := failed(InvalidInput, err.Error())
			return &res
		}

		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		res := failed(InvalidInput, "Invalid "+strings.Join(fields, ", ")+".")
		return &res
	}
	return nil
}

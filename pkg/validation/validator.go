package validation

import (
	"github.com/go-playground/validator/v10"
)

// Validator подключается к Echo через e.Validator и проверяет DTO по тегам validate.
type Validator struct {
	engine *validator.Validate
}

func (v *Validator) Validate(i interface{}) error {
	return v.engine.Struct(i)
}

// New паникует, если правила не зарегистрировались: без них сервер не стартует.
func New() *Validator {
	engine := validator.New(validator.WithRequiredStructEnabled())
	registerNullTypes(engine)
	if err := registerRules(engine); err != nil {
		panic("ошибка регистрации правил валидации: " + err.Error())
	}
	return &Validator{engine: engine}
}

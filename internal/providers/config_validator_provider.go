package providers

import (
	"errors"
	"fmt"

	"fpledger/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.String())
	}
	if cv.conf.Storage.Driver != "memory" && cv.conf.Storage.DSN == "" {
		return errors.New("invalid config: storage.dsn is required for sql drivers")
	}
	return nil
}

package handler

import (
	"errors"
	"net/http"
	"reflect"

	"tesoreria/internal/apierror"
	"tesoreria/internal/middleware"
	"tesoreria/internal/permiso"
	"tesoreria/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			c.JSON(http.StatusBadRequest, apierror.New("Datos invalidos"))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range ves {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramID parses a uuid path parameter, answering 400 when malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(name+" invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// actor resolves the caller from the verified JWT claims. Routes without
// JWTAuth get an empty actor, which every service rejects.
func actor(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{
		TenantID:  claims.Tenant(),
		UsuarioID: claims.Usuario(),
		Permisos:  permiso.DeRol(claims.Rol),
	}
}

package handlers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/identity"
	"github.com/mamadbah2/prodtrack/internal/server/middleware"
	"github.com/mamadbah2/prodtrack/internal/server/respond"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindAndValidate binds the JSON body and runs the validate tags. On failure
// it writes the error response and returns false.
func bindAndValidate(c *gin.Context, logger *zap.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respond.Error(c, logger, apperr.Validation("invalid JSON body"))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respond.Error(c, logger, apperr.Internal(err))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
		respond.Error(c, logger, apperr.ValidationFields("validation failed", fields))
		return false
	}
	return true
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// pathID parses an ObjectID path parameter.
func pathID(c *gin.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, apperr.ValidationFields("invalid id", map[string]string{name: "must be a valid id"})
	}
	return id, nil
}

// queryID parses an optional ObjectID query parameter.
func queryID(c *gin.Context, name string) (*primitive.ObjectID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperr.ValidationFields("invalid query", map[string]string{name: "must be a valid id"})
	}
	return &id, nil
}

// optionalID parses an optional ObjectID body field. Blank values stay nil.
func optionalID(field string, raw *string) (*primitive.ObjectID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(*raw))
	if err != nil {
		return nil, apperr.ValidationFields("invalid id", map[string]string{field: "must be a valid id"})
	}
	return &id, nil
}

// parseIDs parses a list of hex ObjectIDs.
func parseIDs(field string, values []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, apperr.ValidationFields("invalid id", map[string]string{field: "must contain valid ids"})
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ValidationFields("invalid query", map[string]string{name: "must be an integer"})
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.ValidationFields("invalid query", map[string]string{name: "must be true or false"})
	}
	return &b, nil
}

func caller(c *gin.Context) identity.Identity {
	id, _ := middleware.GetIdentity(c)
	return id
}

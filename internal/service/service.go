// Package service exposes the professionals over a REST API.
package service

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/dirk.krummacker/professionals-service/internal/config"
	"gitlab.com/dirk.krummacker/professionals-service/internal/logging"
	"gitlab.com/dirk.krummacker/professionals-service/internal/model"
	"gitlab.com/dirk.krummacker/professionals-service/internal/store"
	"gitlab.com/dirk.krummacker/professionals-service/internal/upsert"
)

// bulkShapeMessage is returned when the bulk body is not a list of items.
const bulkShapeMessage = "'professionals' must be a list."

// bulkWrapperKey is the key under which a wrapped bulk body carries its items.
const bulkWrapperKey = "professionals"

func init() {
	// Raw items are validated field by field, so numbers must keep their literal text.
	binding.EnableDecoderUseNumber = true
}

// Service holds the dependencies of the HTTP handlers.
type Service struct {
	store      *store.Store
	reconciler *upsert.Reconciler
	log        *logging.Logger
}

// New creates the service on top of the specified store.
func New(s *store.Store, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		store:      s,
		reconciler: upsert.NewReconciler(s, log),
		log:        log,
	}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func (s *Service) SetupHttpRouter(cfg config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), httpMetrics(), cors(cfg.CORSOrigins))
	if cfg.GinLogging {
		router.Use(requestLogger(s.log))
	} else {
		s.log.Info("Turning off HTTP request logging.")
	}
	router.GET("/professionals", s.findProfessionals)
	router.POST("/professionals", s.createProfessional)
	router.POST("/professionals/bulk", s.bulkUpsert)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// findProfessionals responds with the list of all professionals as JSON, newest first.
//
// The URL parameter 'source' restricts the list to professionals with exactly this source. Valid
// values are 'direct', 'partner' and 'internal'. An empty list is returned as [].
//
// REST API calls:
//
//	> curl "http://localhost:8080/professionals"
//	> curl "http://localhost:8080/professionals?source=partner"
func (s *Service) findProfessionals(c *gin.Context) {
	var filter *model.Source
	if value := c.Query("source"); value != "" {
		source, err := model.ParseSource(value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, model.FieldErrors{model.FieldSource: {err.Error()}})
			return
		}
		filter = &source
	}
	professionals, err := s.store.List(c.Request.Context(), filter)
	if err != nil {
		s.internalError(c, "could not list professionals", err)
		return
	}
	c.IndentedJSON(http.StatusOK, professionals)
}

// createProfessional stores the professional specified in the request's JSON. It responds with
// the full record including the newly assigned id and creation time. Validation problems and
// conflicts with existing email addresses or phone numbers are answered with the errors per field.
//
// Example REST API call:
//
//	> curl http://localhost:8080/professionals --request "POST" --include --header "Content-Type: application/json" --data '{"full_name": "Erika Mustermann", "email": "erika@example.com", "source": "direct"}'
func (s *Service) createProfessional(c *gin.Context) {
	var raw interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	p, fieldErrs, err := upsert.Create(c.Request.Context(), s.store, raw)
	if err != nil {
		s.internalError(c, "could not create professional", err)
		return
	}
	if fieldErrs != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, fieldErrs)
		return
	}
	s.log.Debug("professional created", "id", p.Id, "email", p.Email, "phone", p.Phone)
	c.IndentedJSON(http.StatusCreated, p)
}

// bulkUpsert creates or updates every professional of the JSON list in the request body. Each item
// is matched by email first and by phone second. Items succeed or fail on their own; the response
// lists one result per item in the order of the request.
//
// The body is a bare list. For compatibility, an object with the list under 'professionals' is
// accepted as well.
//
// Example REST API call:
//
//	> curl http://localhost:8080/professionals/bulk --request "POST" --header "Content-Type: application/json" --data '[{"full_name": "Erika Mustermann", "phone": "+49 0815 4711", "source": "partner"}]'
func (s *Service) bulkUpsert(c *gin.Context) {
	var body interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bulkShapeMessage})
		return
	}
	items, ok := bulkItems(body)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bulkShapeMessage})
		return
	}
	outcomes := s.reconciler.Reconcile(c.Request.Context(), items)
	s.log.Info("bulk upsert processed", "items", len(items))
	c.IndentedJSON(http.StatusOK, gin.H{"results": outcomes})
}

// bulkItems extracts the list of raw items from a decoded bulk body.
func bulkItems(body interface{}) ([]interface{}, bool) {
	switch v := body.(type) {
	case []interface{}:
		return v, true
	case map[string]interface{}:
		items, ok := v[bulkWrapperKey].([]interface{})
		return items, ok
	}
	return nil, false
}

func (s *Service) internalError(c *gin.Context, msg string, err error) {
	s.log.Error(msg, "error", err, "request_id", c.GetString(requestIDKey))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": msg})
}

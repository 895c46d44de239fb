package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	core, logs := observer.New(zap.DebugLevel)
	r := NewRouter(engine, WithLogger(zap.New(core)))

	printGroup := NewDomainGroup("print", "/print")
	printGroup.POST("/silent", ok("silent"))
	printGroup.GET("/printers", ok("printers"))

	catalogGroup := NewDomainGroup("catalog", "/medicines")
	catalogGroup.GET("/count", ok("count"))

	r.Register(printGroup, catalogGroup).Setup()

	assert.Equal(t, "silent", serve(engine, http.MethodPost, "/api/v1/print/silent").Body.String())
	assert.Equal(t, "printers", serve(engine, http.MethodGet, "/api/v1/print/printers").Body.String())
	assert.Equal(t, "count", serve(engine, http.MethodGet, "/api/v1/medicines/count").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/print/printers").Code)

	assert.Equal(t, 3, logs.FilterMessage("Route mounted").Len())
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("print", "/print")
	group.GET("/preferred", ok("get")).
		PUT("/preferred", ok("put")).
		POST("/raw", ok("post")).
		DELETE("/preferred", ok("delete"))

	group.RegisterRoutes(engine.Group(""))

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/print/preferred", "get"},
		{http.MethodPut, "/print/preferred", "put"},
		{http.MethodPost, "/print/raw", "post"},
		{http.MethodDelete, "/print/preferred", "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("print", "/print")
	group.Use(func(c *gin.Context) {
		c.Header("X-Group", "print")
		c.Next()
	})
	group.GET("/printers", ok("printers"))
	group.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/print/printers")
	assert.Equal(t, "print", w.Header().Get("X-Group"))
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("print", "/print")
	printers := group.Group("printers", "/printers")
	printers.GET("", ok("list"))
	printers.GET("/default", ok("default"))

	group.RegisterRoutes(engine.Group(""))

	assert.Equal(t, "list", serve(engine, http.MethodGet, "/print/printers").Body.String())
	assert.Equal(t, "default", serve(engine, http.MethodGet, "/print/printers/default").Body.String())

	assert.Equal(t, "printers", printers.Name())
	assert.Equal(t, "/printers", printers.Prefix())
}

func TestDomainGroup_Paths(t *testing.T) {
	group := NewDomainGroup("print", "/print")
	group.POST("/silent", ok(""))
	group.Group("printers", "/printers").GET("/default", ok(""))

	paths := group.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, []string{"POST /print/silent", "GET /print/printers/default"}, paths)
}
